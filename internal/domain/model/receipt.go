package model

import "time"

// CheckoutReceipt summarizes a completed checkout for display. Checkout is
// local bookkeeping, not payment processing; the receipt carries no gateway
// reference.
type CheckoutReceipt struct {
	ID           string    `json:"id"`
	TotalCharged float64   `json:"total_charged"`
	PointsEarned int       `json:"points_earned"`
	CreatedAt    time.Time `json:"created_at"`
}
