package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WebhookHandlersTestSuite struct {
	suite.Suite
	echo         *echo.Echo
	gateway      *MockRazorpayService
	verification *MockVerificationService
	handlers     *WebhookHandlers
	userID       uuid.UUID
}

func (s *WebhookHandlersTestSuite) SetupTest() {
	s.echo = echo.New()
	s.gateway = new(MockRazorpayService)
	s.verification = new(MockVerificationService)
	s.handlers = NewWebhookHandlers(s.gateway, s.verification)
	s.userID = uuid.New()
}

func (s *WebhookHandlersTestSuite) capturedBody() string {
	return fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_456",
					"order_id": "order_123",
					"notes": {"user_id": "%s", "plan_id": "pro_monthly"}
				}
			}
		}
	}`, s.userID)
}

func (s *WebhookHandlersTestSuite) deliver(body, signature string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	rec := httptest.NewRecorder()
	return rec, s.handlers.RazorpayWebhook(s.echo.NewContext(req, rec))
}

func (s *WebhookHandlersTestSuite) TestPaymentCaptured_ConfirmsFromNotes() {
	body := s.capturedBody()
	s.gateway.On("VerifyWebhookSignature", []byte(body), "whsig").Return(true)
	s.verification.On("Confirm", mock.Anything, s.userID, "pro_monthly", "pay_456", "order_123").Return(nil)

	rec, err := s.deliver(body, "whsig")

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.verification.AssertNumberOfCalls(s.T(), "Confirm", 1)
}

func (s *WebhookHandlersTestSuite) TestMissingSignature() {
	_, err := s.deliver(s.capturedBody(), "")

	httpErr, ok := err.(*echo.HTTPError)
	s.Require().True(ok)
	s.Equal(http.StatusBadRequest, httpErr.Code)
	s.gateway.AssertNotCalled(s.T(), "VerifyWebhookSignature", mock.Anything, mock.Anything)
}

func (s *WebhookHandlersTestSuite) TestInvalidSignature() {
	body := s.capturedBody()
	s.gateway.On("VerifyWebhookSignature", []byte(body), "forged").Return(false)

	_, err := s.deliver(body, "forged")

	httpErr, ok := err.(*echo.HTTPError)
	s.Require().True(ok)
	s.Equal(http.StatusUnauthorized, httpErr.Code)
	s.verification.AssertNotCalled(s.T(), "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *WebhookHandlersTestSuite) TestUnknownEventIsAcknowledged() {
	body := `{"event": "refund.processed"}`
	s.gateway.On("VerifyWebhookSignature", []byte(body), "whsig").Return(true)

	rec, err := s.deliver(body, "whsig")

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.verification.AssertNotCalled(s.T(), "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *WebhookHandlersTestSuite) TestCapturedWithoutNotesIsSkipped() {
	body := `{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"id": "pay_456", "order_id": "order_123", "notes": {}}}}
	}`
	s.gateway.On("VerifyWebhookSignature", []byte(body), "whsig").Return(true)

	rec, err := s.deliver(body, "whsig")

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.verification.AssertNotCalled(s.T(), "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlersTestSuite))
}
