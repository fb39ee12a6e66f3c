package checkout

import (
	"context"
	"errors"
	"sync"
)

// ErrCheckoutInFlight is returned when a second checkout session is
// initiated while one is still pending.
var ErrCheckoutInFlight = errors.New("checkout session already in flight")

// GatewayResult is the proof delivered by the gateway on a successful
// checkout.
type GatewayResult struct {
	RazorpayPaymentID string
	RazorpayOrderID   string
	RazorpaySignature string
}

// GatewayCallbacks are the three outcome channels of a checkout
// session. Exactly one of them fires per session: a dismissal is a
// user action, not an error, which is why this is not a single
// resolved/rejected result.
type GatewayCallbacks struct {
	OnSuccess func(GatewayResult)
	OnFailure func(error)
	OnDismiss func()
}

// CheckoutOptions configure the gateway checkout surface for one order.
type CheckoutOptions struct {
	KeyID        string
	OrderID      string
	Amount       int64
	Currency     string
	Name         string
	Description  string
	PrefillName  string
	PrefillEmail string
	Notes        map[string]string
}

// GatewayBridge wraps a third-party checkout surface. Implementations
// deliver the outcome through exactly one of the injected callbacks.
type GatewayBridge interface {
	Initiate(ctx context.Context, opts CheckoutOptions, callbacks GatewayCallbacks) error
}

// SingleFlightBridge enforces the concurrency contract of the bridge:
// at most one checkout session in flight. A second Initiate while one
// is pending is rejected, never silently overlapped. The session
// settles when any callback fires or when the inner Initiate errors.
type SingleFlightBridge struct {
	inner    GatewayBridge
	mu       sync.Mutex
	inFlight bool
}

func NewSingleFlightBridge(inner GatewayBridge) *SingleFlightBridge {
	return &SingleFlightBridge{inner: inner}
}

func (b *SingleFlightBridge) Initiate(ctx context.Context, opts CheckoutOptions, callbacks GatewayCallbacks) error {
	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return ErrCheckoutInFlight
	}
	b.inFlight = true
	b.mu.Unlock()

	wrapped := GatewayCallbacks{
		OnSuccess: func(result GatewayResult) {
			b.settle()
			if callbacks.OnSuccess != nil {
				callbacks.OnSuccess(result)
			}
		},
		OnFailure: func(err error) {
			b.settle()
			if callbacks.OnFailure != nil {
				callbacks.OnFailure(err)
			}
		},
		OnDismiss: func() {
			b.settle()
			if callbacks.OnDismiss != nil {
				callbacks.OnDismiss()
			}
		},
	}

	if err := b.inner.Initiate(ctx, opts, wrapped); err != nil {
		b.settle()
		return err
	}
	return nil
}

func (b *SingleFlightBridge) settle() {
	b.mu.Lock()
	b.inFlight = false
	b.mu.Unlock()
}
