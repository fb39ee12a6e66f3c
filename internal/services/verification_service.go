package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"opensox/internal/analytics"
	"opensox/internal/caching"
	"opensox/internal/models"
	"opensox/internal/repositories"

	"github.com/google/uuid"
)

// VerificationRequest carries the gateway's proof of a completed checkout.
type VerificationRequest struct {
	RazorpayPaymentID string
	RazorpayOrderID   string
	RazorpaySignature string
	PlanID            string
}

// VerificationService authenticates a gateway checkout result and
// commits the subscription/payment ledger. The signature gate runs
// before any write: a mismatch leaves the ledger untouched.
type VerificationService interface {
	Verify(ctx context.Context, userID uuid.UUID, req VerificationRequest) error

	// Confirm commits a capture that was authenticated out of band
	// (webhook HMAC instead of the checkout signature). It is the
	// replay-safe recovery path for payments whose client-side
	// verification never arrived.
	Confirm(ctx context.Context, userID uuid.UUID, planID, razorpayPaymentID, razorpayOrderID string) error
}

type verificationService struct {
	gateway  RazorpayService
	planRepo repositories.PlanRepository
	ledger   repositories.LedgerRepository
	cache    caching.CacheService
	sink     analytics.Sink
}

func NewVerificationService(
	gateway RazorpayService,
	planRepo repositories.PlanRepository,
	ledger repositories.LedgerRepository,
	cache caching.CacheService,
	sink analytics.Sink,
) VerificationService {
	return &verificationService{
		gateway:  gateway,
		planRepo: planRepo,
		ledger:   ledger,
		cache:    cache,
		sink:     sink,
	}
}

func (s *verificationService) Verify(ctx context.Context, userID uuid.UUID, req VerificationRequest) error {
	if !s.gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		// a forged signature on a real order id is a tamper signal, not noise
		log.Printf("WARN: payment signature mismatch (possible tampering): user=%s order=%s", userID, req.RazorpayOrderID)
		s.sink.Track(ctx, analytics.Event{
			Name:    analytics.EventPaymentFailed,
			UserID:  userID,
			PlanID:  req.PlanID,
			OrderID: req.RazorpayOrderID,
			Reason:  "verification_failed",
		})
		return ErrSignatureMismatch
	}

	return s.commitCapture(ctx, userID, req.PlanID, req.RazorpayPaymentID, req.RazorpayOrderID)
}

func (s *verificationService) Confirm(ctx context.Context, userID uuid.UUID, planID, razorpayPaymentID, razorpayOrderID string) error {
	return s.commitCapture(ctx, userID, planID, razorpayPaymentID, razorpayOrderID)
}

// commitCapture builds the active subscription and captured payment and
// writes both through the ledger's single transaction. Idempotent under
// replay: both upserts are keyed on uniqueness constraints.
func (s *verificationService) commitCapture(ctx context.Context, userID uuid.UUID, planID, razorpayPaymentID, razorpayOrderID string) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	now := time.Now()
	subscription := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   plan.PeriodEnd(now),
		AutoRenew: true,
	}
	payment := &models.Payment{
		ID:                uuid.New(),
		UserID:            userID,
		RazorpayPaymentID: razorpayPaymentID,
		RazorpayOrderID:   razorpayOrderID,
		Amount:            plan.Price,
		Currency:          plan.Currency,
		Status:            models.PaymentStatusCaptured,
	}

	if err := s.ledger.CommitCapture(ctx, subscription, payment); err != nil {
		s.sink.Track(ctx, analytics.Event{
			Name:    analytics.EventPaymentFailed,
			UserID:  userID,
			PlanID:  plan.ID,
			OrderID: razorpayOrderID,
			Reason:  "ledger_commit_failed",
		})
		return fmt.Errorf("failed to commit capture: %w", err)
	}

	// the cache is never authoritative, so a failed invalidation is
	// logged and swallowed rather than failing a captured payment
	if err := s.cache.DeleteSubscriptionStatus(ctx, userID); err != nil {
		log.Printf("WARN: subscription cache invalidation failed (non-fatal): user=%s err=%v", userID, err)
	}

	s.sink.Track(ctx, analytics.Event{
		Name:    analytics.EventPaymentCompleted,
		UserID:  userID,
		PlanID:  plan.ID,
		OrderID: razorpayOrderID,
	})
	s.sink.Track(ctx, analytics.Event{
		Name:   analytics.EventSubscriptionStarted,
		UserID: userID,
		PlanID: plan.ID,
	})
	return nil
}
