package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"opensox/internal/common"
	"opensox/internal/services"

	"github.com/labstack/echo/v4"
)

// PaymentHandlers handles HTTP requests for the payment capture flow
type PaymentHandlers struct {
	orderService        services.OrderService
	verificationService services.VerificationService
	receiptService      services.ReceiptService
	gateway             services.RazorpayService
}

// NewPaymentHandlers creates a new payment handlers instance
func NewPaymentHandlers(
	orderService services.OrderService,
	verificationService services.VerificationService,
	receiptService services.ReceiptService,
	gateway services.RazorpayService,
) *PaymentHandlers {
	return &PaymentHandlers{
		orderService:        orderService,
		verificationService: verificationService,
		receiptService:      receiptService,
		gateway:             gateway,
	}
}

// CreateOrder handles POST /v1/payments/order
func (h *PaymentHandlers) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		PlanID string `json:"plan_id" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.PlanID, "plan_id"); err != nil {
		return common.SendValidationError(c, "plan_id", err.Error())
	}

	receipt := fmt.Sprintf("opensox_%d", time.Now().UnixMilli())
	order, err := h.orderService.CreateOrder(ctx, userID, req.PlanID, receipt, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Plan not found")
		case errors.Is(err, services.ErrGatewayUnavailable):
			return echo.NewHTTPError(http.StatusBadGateway, "Payment gateway unavailable")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"order_id": order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.Receipt,
		"key_id":   h.gateway.KeyID(),
	})
}

// VerifyPayment handles POST /v1/payments/verify
func (h *PaymentHandlers) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
		RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
		RazorpaySignature string `json:"razorpay_signature" validate:"required"`
		PlanID            string `json:"plan_id" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	for field, value := range map[string]string{
		"razorpay_payment_id": req.RazorpayPaymentID,
		"razorpay_order_id":   req.RazorpayOrderID,
		"razorpay_signature":  req.RazorpaySignature,
		"plan_id":             req.PlanID,
	} {
		if err := common.ValidateRequiredString(value, field); err != nil {
			return common.SendValidationError(c, field, err.Error())
		}
	}

	err := h.verificationService.Verify(ctx, userID, services.VerificationRequest{
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpaySignature: req.RazorpaySignature,
		PlanID:            req.PlanID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignatureMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, "Payment signature verification failed")
		case errors.Is(err, services.ErrPlanNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Plan not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}

// GetReceipt handles GET /v1/payments/:id/receipt
func (h *PaymentHandlers) GetReceipt(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	paymentID, err := common.ValidateUUID(c.Param("id"), "payment id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.receiptService.GenerateReceipt(ctx, userID, paymentID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"receipt_url": url,
	})
}
