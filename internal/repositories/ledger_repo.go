package repositories

import (
	"context"
	"fmt"

	"opensox/internal/models"
)

// LedgerRepository commits the subscription/payment ledger as a single
// atomic unit. A captured payment without an active subscription (or
// vice versa) must never be observable, so both upserts run inside one
// transaction: both commit or neither does.
type LedgerRepository interface {
	CommitCapture(ctx context.Context, subscription *models.Subscription, payment *models.Payment) error
}

type ledgerRepo struct {
	db Database
}

func NewLedgerRepo(db Database) LedgerRepository {
	return &ledgerRepo{db: db}
}

// CommitCapture upserts the user's subscription keyed on user_id and
// the payment keyed on razorpay_payment_id. Both writes are conditional
// on their uniqueness constraints rather than read-then-write, so
// concurrent verification attempts for the same user cannot race into
// duplicate rows. The subscription id the payment references is taken
// from the upsert's RETURNING clause, which resolves to the existing
// row on renewal.
func (r *ledgerRepo) CommitCapture(ctx context.Context, subscription *models.Subscription, payment *models.Payment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin capture transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	subscriptionQuery := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, start_date, end_date, auto_renew, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET plan_id = EXCLUDED.plan_id, status = EXCLUDED.status, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, auto_renew = EXCLUDED.auto_renew, updated_at = NOW()
		RETURNING id
	`
	err = tx.QueryRow(ctx, subscriptionQuery,
		subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status,
		subscription.StartDate, subscription.EndDate, subscription.AutoRenew,
	).Scan(&subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	payment.SubscriptionID = subscription.ID
	paymentQuery := `
		INSERT INTO payments (id, user_id, subscription_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (razorpay_payment_id) DO UPDATE
		SET subscription_id = EXCLUDED.subscription_id, status = EXCLUDED.status, updated_at = NOW()
	`
	_, err = tx.Exec(ctx, paymentQuery,
		payment.ID, payment.UserID, payment.SubscriptionID, payment.RazorpayPaymentID,
		payment.RazorpayOrderID, payment.Amount, payment.Currency, payment.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit capture transaction: %w", err)
	}
	return nil
}
