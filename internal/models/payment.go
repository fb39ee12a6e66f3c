package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses.
const (
	PaymentStatusCreated  = "created"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
)

// Payment is the ledger record of a captured gateway payment. The
// Razorpay payment id is globally unique and acts as the idempotency
// key: replays update the existing row, never duplicate it.
type Payment struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	SubscriptionID    uuid.UUID `json:"subscription_id" db:"subscription_id"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" db:"razorpay_payment_id"`
	RazorpayOrderID   string    `json:"razorpay_order_id" db:"razorpay_order_id"`
	Amount            int64     `json:"amount" db:"amount"`
	Currency          string    `json:"currency" db:"currency"`
	Status            string    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
