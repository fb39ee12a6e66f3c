package handlers

import (
	"context"

	"opensox/internal/models"
	"opensox/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock services shared by the handler tests.

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, planID, receipt string, notes map[string]string) (*models.Order, error) {
	args := m.Called(ctx, userID, planID, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) AvailablePlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Verify(ctx context.Context, userID uuid.UUID, req services.VerificationRequest) error {
	args := m.Called(ctx, userID, req)
	return args.Error(0)
}

func (m *MockVerificationService) Confirm(ctx context.Context, userID uuid.UUID, planID, razorpayPaymentID, razorpayOrderID string) error {
	args := m.Called(ctx, userID, planID, razorpayPaymentID, razorpayOrderID)
	return args.Error(0)
}

type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) GenerateReceipt(ctx context.Context, userID, paymentID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID, paymentID)
	return args.String(0), args.Error(1)
}

func (m *MockReceiptService) BucketName() string {
	args := m.Called()
	return args.String(0)
}

type MockRazorpayService struct {
	mock.Mock
}

func (m *MockRazorpayService) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*services.GatewayOrder, error) {
	args := m.Called(ctx, amount, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GatewayOrder), args.Error(1)
}

func (m *MockRazorpayService) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockRazorpayService) VerifyWebhookSignature(body []byte, signature string) bool {
	args := m.Called(body, signature)
	return args.Bool(0)
}

func (m *MockRazorpayService) KeyID() string {
	args := m.Called()
	return args.String(0)
}
