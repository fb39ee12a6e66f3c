package repositories

import (
	"context"
	"errors"

	"opensox/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error)
	GetByRazorpayPaymentID(ctx context.Context, razorpayPaymentID string) (*models.Payment, error)
}

type paymentRepo struct {
	db Database
}

func NewPaymentRepo(db Database) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, user_id, subscription_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE user_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, userID, id).Scan(&payment.ID, &payment.UserID, &payment.SubscriptionID, &payment.RazorpayPaymentID, &payment.RazorpayOrderID, &payment.Amount, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) GetByRazorpayPaymentID(ctx context.Context, razorpayPaymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, user_id, subscription_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE razorpay_payment_id = $1
	`
	err := r.db.QueryRow(ctx, query, razorpayPaymentID).Scan(&payment.ID, &payment.UserID, &payment.SubscriptionID, &payment.RazorpayPaymentID, &payment.RazorpayOrderID, &payment.Amount, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}
