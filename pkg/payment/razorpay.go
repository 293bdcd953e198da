package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
)

// RazorpayProvider maps payment intents onto Razorpay orders. The order id
// doubles as the client secret the checkout widget needs.
type RazorpayProvider struct {
	client        *razorpay.Client
	webhookSecret string
}

func NewRazorpayProvider(keyID, keySecret, webhookSecret string) *RazorpayProvider {
	client := razorpay.NewClient(keyID, keySecret)

	return &RazorpayProvider{
		client:        client,
		webhookSecret: webhookSecret,
	}
}

func (r *RazorpayProvider) Name() string {
	return "razorpay"
}

func (r *RazorpayProvider) CreatePaymentIntent(ctx context.Context, request *IntentRequest) (*Intent, error) {
	notes := make(map[string]interface{}, len(request.Metadata))
	for key, value := range request.Metadata {
		notes[key] = value
	}

	orderData := map[string]interface{}{
		"amount":   request.AmountMinor,
		"currency": request.Currency,
		"notes":    notes,
	}
	if request.IdempotencyKey != "" {
		orderData["receipt"] = truncate(request.IdempotencyKey, 40)
	}

	order, err := r.client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return convertRazorpayOrder(order), nil
}

func (r *RazorpayProvider) GetPaymentIntent(ctx context.Context, intentID string) (*Intent, error) {
	order, err := r.client.Order.Fetch(intentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	return convertRazorpayOrder(order), nil
}

type razorpayWebhook struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Order struct {
			Entity struct {
				ID    string            `json:"id"`
				Notes map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"order"`
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (r *RazorpayProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	expectedSignature := r.generateSignature(payload)
	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return nil, ErrInvalidSignature
	}

	var body razorpayWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %w", err)
	}

	event := &WebhookEvent{
		Type:         EventUnhandled,
		ProviderType: body.Event,
		CreatedAt:    time.Unix(body.CreatedAt, 0).UTC(),
	}

	orderID := body.Payload.Order.Entity.ID
	notes := body.Payload.Order.Entity.Notes
	if orderID == "" {
		orderID = body.Payload.Payment.Entity.OrderID
		notes = body.Payload.Payment.Entity.Notes
	}

	switch body.Event {
	case "order.paid":
		event.Type = EventPaymentSucceeded
	case "payment.failed":
		event.Type = EventPaymentFailed
	}
	event.ID = body.Event + ":" + orderID
	event.IntentID = orderID
	event.Metadata = notes

	return event, nil
}

func (r *RazorpayProvider) generateSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(r.webhookSecret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func convertRazorpayOrder(order map[string]interface{}) *Intent {
	intent := &Intent{
		ID:          stringField(order, "id"),
		AmountMinor: int64Field(order, "amount"),
		Currency:    stringField(order, "currency"),
		Metadata:    map[string]string{},
	}
	intent.ClientSecret = intent.ID

	switch stringField(order, "status") {
	case "paid":
		intent.Status = IntentStatusSucceeded
	default:
		intent.Status = IntentStatusPending
	}

	if notes, ok := order["notes"].(map[string]interface{}); ok {
		for key, value := range notes {
			intent.Metadata[key] = fmt.Sprintf("%v", value)
		}
	}

	return intent
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// int64Field reads a JSON number, which arrives as float64 once decoded.
func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
