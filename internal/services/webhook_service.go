package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/internal/utils"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/payment"
)

const webhookDedupTTL = 48 * time.Hour

type WebhookService interface {
	HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error
}

type webhookService struct {
	providers     map[string]payment.PaymentProvider
	enrollments   EnrollmentService
	subscriptions SubscriptionService
	cache         CacheService
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewWebhookService(
	providers []payment.PaymentProvider,
	enrollments EnrollmentService,
	subscriptions SubscriptionService,
	cache CacheService,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) WebhookService {
	byName := make(map[string]payment.PaymentProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[p.Name()] = p
		}
	}
	return &webhookService{
		providers:     byName,
		enrollments:   enrollments,
		subscriptions: subscriptions,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, providerName string, payload []byte, signature string) error {
	provider, ok := s.providers[providerName]
	if !ok {
		return utils.NotFound("Unknown payment provider")
	}

	event, err := provider.ValidateWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.logger.LogSecurityEvent("invalid_webhook_signature", "medium", map[string]interface{}{"provider": providerName})
			return utils.Invalid("Invalid webhook signature")
		}
		return utils.Invalid("Invalid webhook payload")
	}
	s.metrics.WebhookReceived(providerName, string(event.Type))

	if event.Type == payment.EventUnhandled {
		return nil
	}

	// Processors redeliver events; handle each one once.
	dedupKey := fmt.Sprintf("webhook:%s:%s", providerName, event.ID)
	first, err := s.cache.SetNX(ctx, dedupKey, true, webhookDedupTTL)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record webhook event, processing anyway")
		first = true
	}
	if !first {
		s.logger.WithField("event_id", event.ID).Debug("Skipping duplicate webhook event")
		return nil
	}

	if err := s.dispatch(ctx, provider, event); err != nil {
		if delErr := s.cache.Delete(ctx, dedupKey); delErr != nil {
			s.logger.WithError(delErr).Warn("Failed to release webhook event key")
		}
		return err
	}
	return nil
}

func (s *webhookService) dispatch(ctx context.Context, provider payment.PaymentProvider, event *payment.WebhookEvent) error {
	switch event.Type {
	case payment.EventPaymentSucceeded:
		intent, err := provider.GetPaymentIntent(ctx, event.IntentID)
		if err != nil {
			return utils.Upstream("Failed to retrieve payment", err)
		}
		return s.enrollments.HandlePaymentSucceeded(ctx, intent, provider.Name())

	case payment.EventPaymentFailed:
		s.logger.LogPaymentEvent(event.IntentID, "payment_failed", 0, "")
		return nil

	case payment.EventSubscriptionUpdated, payment.EventSubscriptionDeleted, payment.EventInvoicePaymentFailed:
		return s.subscriptions.HandleSubscriptionEvent(ctx, event)
	}
	return nil
}
