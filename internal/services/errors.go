package services

import "errors"

var (
	// ErrPlanNotFound is returned when a plan id does not exist in the catalog.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrGatewayUnavailable covers gateway API failures during order creation.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrSignatureMismatch means the gateway-supplied proof did not match
	// the recomputed signature. No ledger writes happen after this.
	ErrSignatureMismatch = errors.New("payment signature mismatch")

	// ErrPaymentNotFound is returned when a payment record does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
)
