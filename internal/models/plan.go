package models

import "time"

// Billing intervals supported by plans.
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Plan is immutable reference data describing a purchasable subscription plan.
// Price is stored in minor currency units (paise for INR).
type Plan struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Interval  string    `json:"interval" db:"interval"`
	Price     int64     `json:"price" db:"price"`
	Currency  string    `json:"currency" db:"currency"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PeriodEnd returns the subscription end date for a period starting at from.
func (p *Plan) PeriodEnd(from time.Time) time.Time {
	if p.Interval == IntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
