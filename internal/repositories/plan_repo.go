package repositories

import (
	"context"
	"errors"

	"opensox/internal/models"

	"github.com/jackc/pgx/v5"
)

type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	plan := &models.Plan{}
	query := `
		SELECT id, name, interval, price, currency, created_at, updated_at
		FROM plans
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&plan.ID, &plan.Name, &plan.Interval, &plan.Price, &plan.Currency, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) List(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT id, name, interval, price, currency, created_at, updated_at
		FROM plans
		ORDER BY price ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Interval, &plan.Price, &plan.Currency, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
