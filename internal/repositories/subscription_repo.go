package repositories

import (
	"context"
	"errors"
	"time"

	"opensox/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	ExpireLapsed(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	query := `
		SELECT id, user_id, plan_id, status, start_date, end_date, auto_renew, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&subscription.ID, &subscription.UserID, &subscription.PlanID, &subscription.Status, &subscription.StartDate, &subscription.EndDate, &subscription.AutoRenew, &subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no subscription yet
		}
		return nil, err
	}
	return subscription, nil
}

// ExpireLapsed flips active subscriptions whose end date has passed to
// expired and returns the affected user ids so their cache entries can
// be dropped.
func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date < $1
		RETURNING user_id
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}
