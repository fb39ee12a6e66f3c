package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRazorpayService(baseURL string) *razorpayService {
	svc := NewRazorpayService("rzp_test_key", "test_secret", "whsec_test").(*razorpayService)
	if baseURL != "" {
		svc.baseURL = baseURL
	}
	return svc
}

func TestVerifyPaymentSignature(t *testing.T) {
	svc := newTestRazorpayService("")

	// HMAC-SHA256("order_123|pay_456", "test_secret")
	valid := "6c343620f1910da483982cf25b9dc33d709afdd25930f08964ef60b65aefa831"

	assert.True(t, svc.VerifyPaymentSignature("order_123", "pay_456", valid))
	assert.False(t, svc.VerifyPaymentSignature("order_123", "pay_456", "deadbeef"))
	assert.False(t, svc.VerifyPaymentSignature("order_123", "pay_999", valid))
	assert.False(t, svc.VerifyPaymentSignature("order_123", "pay_456", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	svc := newTestRazorpayService("")

	body := []byte(`{"event":"payment.captured"}`)
	// HMAC-SHA256 of the raw body keyed by the webhook secret
	valid := "4f463a57dd128675850163391f0311888616d57bccca75c774c9cdb28134f851"

	assert.True(t, svc.VerifyWebhookSignature(body, valid))
	assert.False(t, svc.VerifyWebhookSignature([]byte(`{"event":"payment.captured" }`), valid))
	assert.False(t, svc.VerifyWebhookSignature(body, "deadbeef"))
}

func TestCreateOrder(t *testing.T) {
	var gotPath, gotAuthUser string
	var gotBody createOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuthUser, _, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(GatewayOrder{
			ID:       "order_test_1",
			Amount:   gotBody.Amount,
			Currency: gotBody.Currency,
			Receipt:  gotBody.Receipt,
			Status:   "created",
		})
	}))
	defer server.Close()

	svc := newTestRazorpayService(server.URL)
	order, err := svc.CreateOrder(context.Background(), 49900, "INR", "rcpt_1", map[string]string{"plan_id": "pro_monthly"})

	require.NoError(t, err)
	assert.Equal(t, "/orders", gotPath)
	assert.Equal(t, "rzp_test_key", gotAuthUser)
	assert.Equal(t, int64(49900), gotBody.Amount)
	assert.Equal(t, "pro_monthly", gotBody.Notes["plan_id"])
	assert.Equal(t, "order_test_1", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
}

func TestCreateOrder_GatewayErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"description":"upstream down"}}`))
	}))
	defer server.Close()

	svc := newTestRazorpayService(server.URL)
	order, err := svc.CreateOrder(context.Background(), 49900, "INR", "rcpt_1", nil)

	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
