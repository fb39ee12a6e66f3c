package services

import (
	"context"
	"testing"

	"opensox/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	planRepo *MockPlanRepository
	gateway  *MockRazorpayService
	service  OrderService
	userID   uuid.UUID
	plan     *models.Plan
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.planRepo = new(MockPlanRepository)
	s.gateway = new(MockRazorpayService)
	s.service = NewOrderService(s.planRepo, s.gateway)
	s.userID = uuid.New()
	s.plan = &models.Plan{
		ID:       "pro_monthly",
		Name:     "Pro",
		Interval: models.IntervalMonthly,
		Price:    49900,
		Currency: "INR",
	}
}

func (s *OrderServiceTestSuite) TestCreateOrder_BlankPlanID() {
	order, err := s.service.CreateOrder(context.Background(), s.userID, "  ", "rcpt_1", nil)

	s.Error(err)
	s.Nil(order)
	s.gateway.AssertNotCalled(s.T(), "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrderServiceTestSuite) TestCreateOrder_UnknownPlan() {
	s.planRepo.On("GetByID", mock.Anything, "missing").Return(nil, nil)

	order, err := s.service.CreateOrder(context.Background(), s.userID, "missing", "rcpt_1", nil)

	s.ErrorIs(err, ErrPlanNotFound)
	s.Nil(order)
	s.gateway.AssertNotCalled(s.T(), "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrderServiceTestSuite) TestCreateOrder_UsesPlanPriceAndTagsNotes() {
	s.planRepo.On("GetByID", mock.Anything, "pro_monthly").Return(s.plan, nil)
	s.gateway.On("CreateOrder", mock.Anything, int64(49900), "INR", "rcpt_1", mock.Anything).
		Return(&GatewayOrder{ID: "order_123", Amount: 49900, Currency: "INR", Receipt: "rcpt_1", Status: "created"}, nil)

	order, err := s.service.CreateOrder(context.Background(), s.userID, "pro_monthly", "rcpt_1", map[string]string{"plan": "Pro"})

	s.NoError(err)
	s.Equal("order_123", order.OrderID)
	s.Equal(int64(49900), order.Amount)
	s.Equal("rcpt_1", order.Receipt)

	notes := s.gateway.Calls[0].Arguments.Get(4).(map[string]string)
	s.Equal(s.userID.String(), notes["user_id"])
	s.Equal("pro_monthly", notes["plan_id"])
	s.Equal("Pro", notes["plan"])
}

func (s *OrderServiceTestSuite) TestCreateOrder_GatewayErrorPropagates() {
	s.planRepo.On("GetByID", mock.Anything, "pro_monthly").Return(s.plan, nil)
	s.gateway.On("CreateOrder", mock.Anything, int64(49900), "INR", "rcpt_1", mock.Anything).
		Return(nil, ErrGatewayUnavailable)

	order, err := s.service.CreateOrder(context.Background(), s.userID, "pro_monthly", "rcpt_1", nil)

	s.ErrorIs(err, ErrGatewayUnavailable)
	s.Nil(order)
}

func (s *OrderServiceTestSuite) TestAvailablePlans() {
	plans := []*models.Plan{s.plan}
	s.planRepo.On("List", mock.Anything).Return(plans, nil)

	got, err := s.service.AvailablePlans(context.Background())

	s.NoError(err)
	s.Equal(plans, got)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
