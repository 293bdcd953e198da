package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

func newStripeTestProvider(t *testing.T, handler http.HandlerFunc) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProviderWithBackends("sk_test_123", "whsec_test", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func TestStripeCreatePaymentIntent(t *testing.T) {
	var form url.Values
	provider := newStripeTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pi_123",
			"object": "payment_intent",
			"amount": 8500,
			"currency": "usd",
			"status": "requires_payment_method",
			"client_secret": "pi_123_secret_abc",
			"metadata": {"course_id": "c1", "user_id": "u1"}
		}`))
	})

	intent, err := provider.CreatePaymentIntent(context.Background(), &IntentRequest{
		AmountMinor: 8500,
		Currency:    "USD",
		Description: "Go Basics",
		Metadata:    map[string]string{"course_id": "c1", "user_id": "u1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "8500", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "c1", form.Get("metadata[course_id]"))
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, IntentStatusPending, intent.Status)
	assert.Equal(t, "u1", intent.Metadata["user_id"])
}

func TestStripeGetPaymentIntentSucceeded(t *testing.T) {
	provider := newStripeTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":8500,"currency":"usd","status":"succeeded"}`))
	})

	intent, err := provider.GetPaymentIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.True(t, intent.Succeeded())
	assert.Equal(t, int64(8500), intent.AmountMinor)
}

func TestStripeGetPaymentIntentError(t *testing.T) {
	provider := newStripeTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`))
	})

	_, err := provider.GetPaymentIntent(context.Background(), "pi_missing")
	assert.Error(t, err)
}

func TestStripeCreateSubscriptionExpandsInvoice(t *testing.T) {
	var form url.Values
	provider := newStripeTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "sub_1",
			"object": "subscription",
			"status": "incomplete",
			"current_period_end": 1767225600,
			"latest_invoice": {
				"id": "in_1",
				"object": "invoice",
				"payment_intent": {"id": "pi_9", "object": "payment_intent", "client_secret": "pi_9_secret"}
			}
		}`))
	})

	sub, err := provider.CreateSubscription(context.Background(), &SubscriptionRequest{
		CustomerID: "cus_1",
		PriceID:    "price_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "default_incomplete", form.Get("payment_behavior"))
	assert.Equal(t, "latest_invoice.payment_intent", form.Get("expand[0]"))
	assert.Equal(t, "price_1", form.Get("items[0][price]"))
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "pi_9_secret", sub.ClientSecret)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), sub.CurrentPeriodEnd)
}

func signStripe(t *testing.T, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestStripeValidateWebhook(t *testing.T) {
	provider := NewStripeProvider("sk_test_123", "whsec_test")

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"api_version": "` + stripe.APIVersion + `",
		"created": 1700000000,
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "metadata": {"course_id": "c1"}}}
	}`)

	event, err := provider.ValidateWebhook(context.Background(), payload, signStripe(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.IntentID)
	assert.Equal(t, "c1", event.Metadata["course_id"])

	_, err = provider.ValidateWebhook(context.Background(), payload, "t=1,v1=bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeValidateWebhookSubscriptionDeleted(t *testing.T) {
	provider := NewStripeProvider("sk_test_123", "whsec_test")

	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"type": "customer.subscription.deleted",
		"api_version": "` + stripe.APIVersion + `",
		"data": {"object": {"id": "sub_1", "object": "subscription", "status": "canceled"}}
	}`)

	event, err := provider.ValidateWebhook(context.Background(), payload, signStripe(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventSubscriptionDeleted, event.Type)
	assert.Equal(t, "sub_1", event.SubscriptionID)
	assert.Equal(t, "canceled", event.SubscriptionStatus)
}

func TestRazorpayValidateWebhook(t *testing.T) {
	provider := NewRazorpayProvider("rzp_key", "rzp_secret", "hook_secret")

	payload, err := json.Marshal(map[string]interface{}{
		"event":      "order.paid",
		"created_at": 1700000000,
		"payload": map[string]interface{}{
			"order": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":    "order_1",
					"notes": map[string]string{"course_id": "c1"},
				},
			},
		},
	})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("hook_secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	event, err := provider.ValidateWebhook(context.Background(), payload, signature)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "order_1", event.IntentID)
	assert.Equal(t, "c1", event.Metadata["course_id"])

	_, err = provider.ValidateWebhook(context.Background(), payload, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConvertRazorpayOrder(t *testing.T) {
	intent := convertRazorpayOrder(map[string]interface{}{
		"id":       "order_1",
		"amount":   float64(8500),
		"currency": "INR",
		"status":   "paid",
		"notes":    map[string]interface{}{"user_id": "u1"},
	})

	assert.Equal(t, "order_1", intent.ID)
	assert.Equal(t, "order_1", intent.ClientSecret)
	assert.Equal(t, int64(8500), intent.AmountMinor)
	assert.True(t, intent.Succeeded())
	assert.Equal(t, "u1", intent.Metadata["user_id"])

	pending := convertRazorpayOrder(map[string]interface{}{"id": "order_2", "status": "created"})
	assert.Equal(t, IntentStatusPending, pending.Status)
}
