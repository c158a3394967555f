package model

import "math"

// CartLine is a single product entry in a cart. Code is the unique key across
// the cart; Price/Name/Image are captured at first add and stay sticky for the
// life of the line.
type CartLine struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns the line total.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart is an ordered sequence of code-unique cart lines. A retained line
// always has Quantity >= 1.
type Cart []CartLine

// IndexOf returns the position of the line with the given code, or -1.
func (c Cart) IndexOf(code string) int {
	for i := range c {
		if c[i].Code == code {
			return i
		}
	}
	return -1
}

// Subtotal returns the sum of all line subtotals.
func (c Cart) Subtotal() float64 {
	var sum float64
	for _, line := range c {
		sum += line.Subtotal()
	}
	return sum
}

// Units returns the total number of units across all lines.
func (c Cart) Units() int {
	var n int
	for _, line := range c {
		n += line.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c) == 0 }

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// PointsFor returns the loyalty points earned for a charged total at the
// given conversion rate (amount charged per point).
func PointsFor(total float64, conversionRate int) int {
	if conversionRate <= 0 || total <= 0 {
		return 0
	}
	return int(math.Floor(total / float64(conversionRate)))
}
