package payment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("payment provider not configured")
)

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusCanceled  IntentStatus = "canceled"
)

// PaymentProvider creates one-off charges the client confirms on its side.
type PaymentProvider interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, request *IntentRequest) (*Intent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*Intent, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// SubscriptionProvider manages customers, catalog entries and recurring
// subscriptions at the processor.
type SubscriptionProvider interface {
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	CreateCustomer(ctx context.Context, request *CustomerRequest) (*Customer, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateProduct(ctx context.Context, name, description string) (string, error)
	CreatePrice(ctx context.Context, request *PriceRequest) (string, error)
	CreateSubscription(ctx context.Context, request *SubscriptionRequest) (*Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)
}

type IntentRequest struct {
	AmountMinor    int64             `json:"amount_minor"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	ReceiptEmail   string            `json:"receipt_email,omitempty"`
	IdempotencyKey string            `json:"-"`
	Metadata       map[string]string `json:"metadata"`
}

type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Status       IntentStatus      `json:"status"`
	AmountMinor  int64             `json:"amount_minor"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == IntentStatusSucceeded
}

type Customer struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Deleted bool   `json:"deleted"`
}

type CustomerRequest struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

type PriceRequest struct {
	ProductID   string
	AmountMinor int64
	Currency    string
	Interval    string
}

type SubscriptionRequest struct {
	CustomerID     string
	PriceID        string
	IdempotencyKey string
	Metadata       map[string]string
}

type Subscription struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	ClientSecret      string    `json:"client_secret,omitempty"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
}

type EventType string

const (
	EventPaymentSucceeded     EventType = "payment.succeeded"
	EventPaymentFailed        EventType = "payment.failed"
	EventSubscriptionUpdated  EventType = "subscription.updated"
	EventSubscriptionDeleted  EventType = "subscription.deleted"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
	EventUnhandled            EventType = "unhandled"
)

// WebhookEvent is a verified processor notification reduced to the fields
// the marketplace acts on.
type WebhookEvent struct {
	ID                 string            `json:"id"`
	Type               EventType         `json:"type"`
	ProviderType       string            `json:"provider_type"`
	IntentID           string            `json:"intent_id,omitempty"`
	SubscriptionID     string            `json:"subscription_id,omitempty"`
	SubscriptionStatus string            `json:"subscription_status,omitempty"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end,omitempty"`
	CurrentPeriodEnd   time.Time         `json:"current_period_end,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}
