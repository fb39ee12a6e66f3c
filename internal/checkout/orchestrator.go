package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"opensox/internal/analytics"
	"opensox/internal/models"
	"opensox/internal/services"

	"github.com/google/uuid"
)

// State is the orchestrator's position in the payment saga.
type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingOrder         State = "awaiting_order"
	StateAwaitingGatewayResult State = "awaiting_gateway_result"
	StateVerifying             State = "verifying"
	StateActivated             State = "activated"
	StateFailed                State = "failed"
	StateDismissed             State = "dismissed"
)

// FailureKind classifies a terminal Failed state.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureOrderCreation FailureKind = "order_creation_failed"
	FailurePayment       FailureKind = "payment_failed"
	FailureVerification  FailureKind = "verification_failed"
)

var (
	// ErrPlanUnavailable means the configured plan id is empty; the pay
	// action is disabled and nothing is attempted.
	ErrPlanUnavailable = errors.New("payment unavailable: no plan configured")

	// ErrGatewayNotConfigured means the gateway public key is missing;
	// checkout is never attempted without it.
	ErrGatewayNotConfigured = errors.New("payment unavailable: gateway key not configured")
)

// IdentityState mirrors the identity provider's three answers.
type IdentityState int

const (
	IdentityResolved IdentityState = iota
	IdentityLoading
	IdentityNone
)

// Identity is a resolved user identity.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// IdentityProvider supplies a resolved identity or "none". Session
// management lives elsewhere; the orchestrator only consumes the answer.
type IdentityProvider interface {
	Resolve(ctx context.Context) (Identity, IdentityState)
}

// OrderCreator creates the payment-intent order. Satisfied by
// services.OrderService.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, planID, receipt string, notes map[string]string) (*models.Order, error)
}

// Verifier validates the gateway proof and commits the ledger.
// Satisfied by services.VerificationService.
type Verifier interface {
	Verify(ctx context.Context, userID uuid.UUID, req services.VerificationRequest) error
}

// StatusRefresher invalidates and repopulates the cached subscription
// status. Satisfied by services.SubscriptionService.
type StatusRefresher interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, userID uuid.UUID) error
}

// Navigator is where the orchestrator sends the user next.
type Navigator interface {
	Redirect(target string)
}

// Config fixes one payment control's plan and destinations.
type Config struct {
	PlanID           string
	PlanName         string
	Description      string
	GatewayKeyID     string
	ConfirmationPath string
	LoginPath        string
	CallbackURL      string
	RefreshTimeout   time.Duration
}

// Orchestrator drives the payment capture and subscription activation
// saga as a finite-state machine. It is driven purely by external
// events: the user trigger, the gateway callbacks, and network
// responses. One orchestrator serves one payment control; while the
// machine is in any non-terminal, non-idle state a repeated trigger is
// a no-op, which guarantees exactly one order-creation call per
// attempt.
type Orchestrator struct {
	cfg       Config
	identity  IdentityProvider
	orders    OrderCreator
	verifier  Verifier
	bridge    GatewayBridge
	refresher StatusRefresher
	navigator Navigator
	sink      analytics.Sink

	mu      sync.Mutex
	state   State
	failure FailureKind
	order   *models.Order // backend-reported amount, display only
	user    Identity

	// test seam: observes the settling of the detached cache refresh
	refreshSettled func(error)
}

func NewOrchestrator(
	cfg Config,
	identity IdentityProvider,
	orders OrderCreator,
	verifier Verifier,
	bridge GatewayBridge,
	refresher StatusRefresher,
	navigator Navigator,
	sink analytics.Sink,
) *Orchestrator {
	if cfg.ConfirmationPath == "" {
		cfg.ConfirmationPath = "/checkout"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = "/pricing"
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 3 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		identity:  identity,
		orders:    orders,
		verifier:  verifier,
		bridge:    bridge,
		refresher: refresher,
		navigator: navigator,
		sink:      sink,
	}
}

// State returns the machine's current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Failure returns the failure kind of a Failed state.
func (o *Orchestrator) Failure() FailureKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// Order returns the transient order held for display during checkout.
func (o *Orchestrator) Order() *models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order
}

// Available reports whether the pay action should be enabled at all.
func (o *Orchestrator) Available() bool {
	return strings.TrimSpace(o.cfg.PlanID) != "" && o.cfg.GatewayKeyID != ""
}

func (o *Orchestrator) loginRedirect() string {
	return o.cfg.LoginPath + "?callbackUrl=" + url.QueryEscape(o.cfg.CallbackURL)
}

// TriggerPayment is the user's "pay" action. Validation and auth
// failures never reach the network: an empty plan short-circuits, a
// loading identity is a no-op, and a missing identity redirects to
// login carrying the callback target with no state progression.
func (o *Orchestrator) TriggerPayment(ctx context.Context) error {
	user, idState := o.identity.Resolve(ctx)

	o.sink.Track(ctx, analytics.Event{
		Name:   analytics.EventInvestButtonClick,
		UserID: user.UserID,
		PlanID: o.cfg.PlanID,
		Metadata: map[string]string{
			"authenticated": fmt.Sprintf("%t", idState == IdentityResolved),
		},
	})

	if strings.TrimSpace(o.cfg.PlanID) == "" {
		return ErrPlanUnavailable
	}
	if idState == IdentityLoading {
		return nil
	}
	if idState == IdentityNone {
		o.navigator.Redirect(o.loginRedirect())
		return nil
	}
	if o.cfg.GatewayKeyID == "" {
		return ErrGatewayNotConfigured
	}

	o.mu.Lock()
	switch o.state {
	case StateIdle, StateFailed, StateDismissed:
		// fresh attempt; Failed and Dismissed are recoverable
		o.failure = FailureNone
		o.order = nil
		o.user = user
		o.state = StateAwaitingOrder
	default:
		// in flight or already activated: repeated trigger is a no-op
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	receipt := fmt.Sprintf("opensox_%d", time.Now().UnixMilli())
	order, err := o.orders.CreateOrder(ctx, user.UserID, o.cfg.PlanID, receipt, map[string]string{
		"plan": o.cfg.PlanName,
	})
	if err != nil {
		o.fail(ctx, FailureOrderCreation, "", err)
		// no automatic retry; send the user back through the entry point
		o.navigator.Redirect(o.loginRedirect())
		return err
	}

	o.mu.Lock()
	o.order = order
	o.state = StateAwaitingGatewayResult
	o.mu.Unlock()

	o.sink.Track(ctx, analytics.Event{
		Name:    analytics.EventPaymentInitiated,
		UserID:  user.UserID,
		PlanID:  o.cfg.PlanID,
		OrderID: order.OrderID,
	})

	err = o.bridge.Initiate(ctx, CheckoutOptions{
		KeyID:        o.cfg.GatewayKeyID,
		OrderID:      order.OrderID,
		Amount:       order.Amount,
		Currency:     order.Currency,
		Name:         o.cfg.PlanName,
		Description:  o.cfg.Description,
		PrefillName:  user.Name,
		PrefillEmail: user.Email,
		Notes: map[string]string{
			"plan":    o.cfg.PlanName,
			"plan_id": o.cfg.PlanID,
		},
	}, GatewayCallbacks{
		OnSuccess: func(result GatewayResult) { o.handleGatewaySuccess(ctx, result) },
		OnFailure: func(err error) { o.handleGatewayFailure(ctx, err) },
		OnDismiss: o.handleDismiss,
	})
	if err != nil {
		o.fail(ctx, FailurePayment, order.OrderID, err)
		return err
	}
	return nil
}

// handleGatewaySuccess is the gateway's success callback: verify the
// proof, and on success fire the two independent post-activation
// actions. The redirect is unconditional and immediate; the cache
// refresh is detached, raced against a fixed timeout, and its outcome
// can never alter the redirect.
func (o *Orchestrator) handleGatewaySuccess(ctx context.Context, result GatewayResult) {
	o.mu.Lock()
	if o.state != StateAwaitingGatewayResult {
		o.mu.Unlock()
		return
	}
	o.state = StateVerifying
	user := o.user
	o.mu.Unlock()

	// Once here the gateway has captured the payment: verification runs
	// to completion regardless of what the user does client-side.
	err := o.verifier.Verify(ctx, user.UserID, services.VerificationRequest{
		RazorpayPaymentID: result.RazorpayPaymentID,
		RazorpayOrderID:   result.RazorpayOrderID,
		RazorpaySignature: result.RazorpaySignature,
		PlanID:            o.cfg.PlanID,
	})
	if err != nil {
		o.fail(ctx, FailureVerification, result.RazorpayOrderID, err)
		return
	}

	o.mu.Lock()
	o.state = StateActivated
	o.mu.Unlock()

	// payment_completed and subscription_started are emitted by the
	// verifier, which also serves the webhook replay path

	// (b) best-effort cache refresh, detached from the request context
	// so it survives the redirect
	go o.refreshInBackground(user.UserID)

	// (a) unconditional redirect; the confirmation page re-validates
	// subscription status on load, so it never waits on (b)
	o.navigator.Redirect(o.cfg.ConfirmationPath)
}

func (o *Orchestrator) refreshInBackground(userID uuid.UUID) {
	ctx := context.Background()
	if err := o.refresher.Invalidate(ctx, userID); err != nil {
		log.Printf("WARN: subscription cache invalidate failed (non-fatal): user=%s err=%v", userID, err)
	}

	err := FirstSettled(ctx, o.cfg.RefreshTimeout, func(ctx context.Context) error {
		return o.refresher.Refresh(ctx, userID)
	})
	if err != nil {
		log.Printf("WARN: subscription cache refresh failed (non-fatal): user=%s err=%v", userID, err)
	}
	if o.refreshSettled != nil {
		o.refreshSettled(err)
	}
}

func (o *Orchestrator) handleGatewayFailure(ctx context.Context, err error) {
	o.mu.Lock()
	if o.state != StateAwaitingGatewayResult {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	o.fail(ctx, FailurePayment, "", err)
}

// handleDismiss records a user-cancelled checkout. A dismissal is not
// an error: the state is recoverable and a fresh trigger restarts the
// saga from scratch.
func (o *Orchestrator) handleDismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAwaitingGatewayResult {
		return
	}
	o.state = StateDismissed
	o.order = nil
}

func (o *Orchestrator) fail(ctx context.Context, kind FailureKind, orderID string, cause error) {
	o.mu.Lock()
	o.state = StateFailed
	o.failure = kind
	user := o.user
	o.mu.Unlock()

	// the verifier reports its own failures; the saga only reports the
	// ones the services never see
	if kind == FailureVerification {
		return
	}

	reason := string(kind)
	if cause != nil {
		reason = fmt.Sprintf("%s: %v", kind, cause)
	}
	o.sink.Track(ctx, analytics.Event{
		Name:    analytics.EventPaymentFailed,
		UserID:  user.UserID,
		PlanID:  o.cfg.PlanID,
		OrderID: orderID,
		Reason:  reason,
	})
}
