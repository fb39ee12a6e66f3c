package services

import (
	"context"
	"fmt"
	"strings"

	"opensox/internal/models"
	"opensox/internal/repositories"

	"github.com/google/uuid"
)

// OrderService creates gateway payment-intent orders. The order amount
// always comes from the plan record, never from the caller, so a
// tampered client cannot change what it pays.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, planID, receipt string, notes map[string]string) (*models.Order, error)
	AvailablePlans(ctx context.Context) ([]*models.Plan, error)
}

type orderService struct {
	planRepo repositories.PlanRepository
	gateway  RazorpayService
}

func NewOrderService(planRepo repositories.PlanRepository, gateway RazorpayService) OrderService {
	return &orderService{
		planRepo: planRepo,
		gateway:  gateway,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, planID, receipt string, notes map[string]string) (*models.Order, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return nil, fmt.Errorf("plan id is required")
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	if notes == nil {
		notes = map[string]string{}
	}
	// carried through the gateway so webhook replays can resolve the
	// identity and plan without client participation
	notes["user_id"] = userID.String()
	notes["plan_id"] = plan.ID

	gatewayOrder, err := s.gateway.CreateOrder(ctx, plan.Price, plan.Currency, receipt, notes)
	if err != nil {
		return nil, err
	}

	return &models.Order{
		OrderID:  gatewayOrder.ID,
		Amount:   gatewayOrder.Amount,
		Currency: gatewayOrder.Currency,
		Receipt:  receipt,
	}, nil
}

func (s *orderService) AvailablePlans(ctx context.Context) ([]*models.Plan, error) {
	return s.planRepo.List(ctx)
}
