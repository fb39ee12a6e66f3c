package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"opensox/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// WebhookHandlers handles gateway webhook deliveries. The webhook is
// the server-to-server recovery path: it re-delivers captures whose
// client-side verification never arrived, so processing here must be
// safe under replay.
type WebhookHandlers struct {
	gateway             services.RazorpayService
	verificationService services.VerificationService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(gateway services.RazorpayService, verificationService services.VerificationService) *WebhookHandlers {
	return &WebhookHandlers{
		gateway:             gateway,
		verificationService: verificationService,
	}
}

// razorpayWebhookEvent is the subset of the webhook payload the
// capture path needs.
type razorpayWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook handles POST /webhooks/razorpay
func (h *WebhookHandlers) RazorpayWebhook(c echo.Context) error {
	// The HMAC covers the raw bytes, so read before any decoding.
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing Razorpay signature")
	}

	if !h.gateway.VerifyWebhookSignature(body, signature) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	var event razorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook payload")
	}

	if err := h.processEvent(c, event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
		"event":  event.Event,
	})
}

func (h *WebhookHandlers) processEvent(c echo.Context, event razorpayWebhookEvent) error {
	switch event.Event {
	case "payment.captured":
		return h.handlePaymentCaptured(c, event)
	default:
		// acknowledged but not acted on; Razorpay retries on non-2xx
		log.Printf("DEBUG: ignoring webhook event: %s", event.Event)
		return nil
	}
}

func (h *WebhookHandlers) handlePaymentCaptured(c echo.Context, event razorpayWebhookEvent) error {
	entity := event.Payload.Payment.Entity
	if entity.ID == "" || entity.OrderID == "" {
		log.Printf("WARN: payment.captured webhook missing payment entity fields")
		return nil
	}

	// Identity and plan were stamped into the order notes at creation
	// time, so a replay resolves without any client participation.
	userIDStr := entity.Notes["user_id"]
	planID := entity.Notes["plan_id"]
	if userIDStr == "" || planID == "" {
		log.Printf("WARN: payment.captured webhook missing notes: payment=%s", entity.ID)
		return nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("WARN: payment.captured webhook has invalid user_id note: payment=%s err=%v", entity.ID, err)
		return nil
	}

	return h.verificationService.Confirm(c.Request().Context(), userID, planID, entity.ID, entity.OrderID)
}
