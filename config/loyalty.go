package config

// LoyaltyConfig contains loyalty program policy.
//
// The storefront historically hardcoded these values in the UI
// (500 points for 10% off, one point per 1000 charged); they are
// configuration here so the store stays policy-agnostic.
type LoyaltyConfig struct {
	// RedeemCost is the number of points one discount redemption costs.
	RedeemCost int `env:"REDEEM_COST" envDefault:"500"`

	// DiscountPercent is the discount applied on redemption, as a fraction (0.10 = 10%).
	DiscountPercent float64 `env:"DISCOUNT_PERCENT" envDefault:"0.10"`

	// PointsConversionRate is the amount charged per loyalty point earned.
	// Checkout credits floor(total / PointsConversionRate) points.
	PointsConversionRate int `env:"POINTS_CONVERSION_RATE" envDefault:"1000"`
}

// Sanitize applies guardrails to loyalty configuration values.
func (l *LoyaltyConfig) Sanitize() {
	if l.RedeemCost <= 0 {
		l.RedeemCost = 500
	}
	if l.DiscountPercent < 0 || l.DiscountPercent >= 1 {
		l.DiscountPercent = 0.10
	}
	if l.PointsConversionRate <= 0 {
		l.PointsConversionRate = 1000
	}
}
