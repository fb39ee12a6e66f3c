package models

// Order is the transient payment intent for a single checkout attempt.
// It is never persisted by this service; the amount is the
// backend-reported one and is held only for display during checkout.
type Order struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}
