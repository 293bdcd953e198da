package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	client        *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return NewStripeProviderWithBackends(secretKey, webhookSecret, nil)
}

// NewStripeProviderWithBackends lets callers point the client at a
// different API host. A nil backends value uses Stripe's defaults.
func NewStripeProviderWithBackends(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, backends)

	return &StripeProvider{
		client:        sc,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeProvider) Name() string {
	return "stripe"
}

func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, request *IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(request.AmountMinor),
		Currency: stripe.String(strings.ToLower(request.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if request.Description != "" {
		params.Description = stripe.String(request.Description)
	}
	if request.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(request.ReceiptEmail)
	}
	if request.IdempotencyKey != "" {
		params.SetIdempotencyKey(request.IdempotencyKey)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return convertStripeIntent(pi), nil
}

func (s *StripeProvider) GetPaymentIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.client.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return convertStripeIntent(pi), nil
}

func (s *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := s.client.Customers.Get(customerID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}

	return &Customer{ID: cus.ID, Email: cus.Email, Deleted: cus.Deleted}, nil
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, request *CustomerRequest) (*Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(request.Email),
		Name:  stripe.String(request.Name),
	}
	params.Context = ctx
	if request.Phone != "" {
		params.Phone = stripe.String(request.Phone)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	cus, err := s.client.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return &Customer{ID: cus.ID, Email: cus.Email}, nil
}

// AttachPaymentMethod attaches the method to the customer and makes it the
// default for invoices.
func (s *StripeProvider) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	attachParams := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	attachParams.Context = ctx
	if _, err := s.client.PaymentMethods.Attach(paymentMethodID, attachParams); err != nil {
		return fmt.Errorf("failed to attach payment method to customer: %w", err)
	}

	updateParams := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	updateParams.Context = ctx
	if _, err := s.client.Customers.Update(customerID, updateParams); err != nil {
		return fmt.Errorf("failed to set default payment method: %w", err)
	}

	return nil
}

func (s *StripeProvider) CreateProduct(ctx context.Context, name, description string) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	params.Context = ctx
	if description != "" {
		params.Description = stripe.String(description)
	}

	product, err := s.client.Products.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	return product.ID, nil
}

func (s *StripeProvider) CreatePrice(ctx context.Context, request *PriceRequest) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(request.ProductID),
		UnitAmount: stripe.Int64(request.AmountMinor),
		Currency:   stripe.String(strings.ToLower(request.Currency)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(request.Interval),
		},
	}
	params.Context = ctx

	price, err := s.client.Prices.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}

	return price.ID, nil
}

// CreateSubscription starts an incomplete subscription whose first invoice
// the client pays with the returned secret.
func (s *StripeProvider) CreateSubscription(ctx context.Context, request *SubscriptionRequest) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(request.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(request.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
			PaymentMethodTypes:       []*string{stripe.String("card")},
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	if request.IdempotencyKey != "" {
		params.SetIdempotencyKey(request.IdempotencyKey)
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	sub, err := s.client.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return convertStripeSubscription(sub), nil
}

func (s *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := s.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	return convertStripeSubscription(sub), nil
}

func (s *StripeProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		ID:           event.ID,
		Type:         EventUnhandled,
		ProviderType: string(event.Type),
		CreatedAt:    time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.Metadata = pi.Metadata
		out.Type = EventPaymentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			out.Type = EventPaymentFailed
		}
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.SubscriptionID = sub.ID
		out.SubscriptionStatus = string(sub.Status)
		out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		out.Metadata = sub.Metadata
		if sub.CurrentPeriodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		}
		out.Type = EventSubscriptionUpdated
		if event.Type == "customer.subscription.deleted" {
			out.Type = EventSubscriptionDeleted
		}
	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		out.Type = EventInvoicePaymentFailed
	}

	return out, nil
}

func convertStripeIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       convertStripeIntentStatus(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func convertStripeIntentStatus(status stripe.PaymentIntentStatus) IntentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentStatusCanceled
	default:
		return IntentStatusPending
	}
}

func convertStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		out.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}
