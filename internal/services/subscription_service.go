package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/pricing"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	ListAllPlans(ctx context.Context, principal *models.Principal) ([]*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, principal *models.Principal, request *validators.CreatePlanRequest) (*models.SubscriptionPlan, error)

	CreateSubscription(ctx context.Context, principal *models.Principal, request *validators.CreateSubscriptionRequest) (*SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, principal *models.Principal, request *validators.CancelSubscriptionRequest) (*models.UserSubscription, error)
	// GetCurrentSubscription returns nil when the user has no active subscription.
	GetCurrentSubscription(ctx context.Context, principal *models.Principal) (*models.SubscriptionWithPlan, error)

	HandleSubscriptionEvent(ctx context.Context, event *payment.WebhookEvent) error
}

type SubscriptionResponse struct {
	SubscriptionID string    `json:"subscription_id"`
	ClientSecret   string    `json:"client_secret"`
	Status         string    `json:"status"`
	EndDate        time.Time `json:"end_date"`
}

type subscriptionService struct {
	planRepo         interfaces.SubscriptionPlanRepository
	subscriptionRepo interfaces.UserSubscriptionRepository
	userRepo         interfaces.UserRepository
	provider         payment.SubscriptionProvider
	currency         string
	now              func() time.Time
	metrics          *metrics.Metrics
	logger           *logger.Logger
}

// NewSubscriptionService accepts a nil provider; subscription purchases then
// fail with an upstream error while plan listing keeps working.
func NewSubscriptionService(
	planRepo interfaces.SubscriptionPlanRepository,
	subscriptionRepo interfaces.UserSubscriptionRepository,
	userRepo interfaces.UserRepository,
	provider payment.SubscriptionProvider,
	currency string,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		provider:         provider,
		currency:         strings.ToLower(currency),
		now:              time.Now,
		metrics:          metrics,
		logger:           logger,
	}
}

func (s *subscriptionService) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *subscriptionService) ListAllPlans(ctx context.Context, principal *models.Principal) ([]*models.SubscriptionPlan, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}
	plans, err := s.planRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *subscriptionService) CreatePlan(ctx context.Context, principal *models.Principal, request *validators.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}

	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}
	features := request.Features
	if features == nil {
		features = []string{}
	}

	now := s.now().UTC()
	plan := &models.SubscriptionPlan{
		Name:        request.Name,
		Description: request.Description,
		Price:       utils.RoundCurrency(request.Price),
		Interval:    models.PlanInterval(request.Interval),
		Features:    features,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.LogUserAction(principal.UserID, "create_plan", map[string]interface{}{
		"plan_id": plan.ID.Hex(),
		"name":    plan.Name,
	})
	return plan, nil
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, principal *models.Principal, request *validators.CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	planID, err := validators.ParseObjectID(request.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil || !plan.IsActive {
		return nil, utils.NotFound("Subscription plan not found or inactive")
	}

	_, err = s.subscriptionRepo.FindActiveByUser(ctx, principal.UserID)
	if err == nil {
		return nil, utils.Conflict("You already have an active subscription")
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}

	if s.provider == nil {
		return nil, utils.Upstream("Subscriptions are not available", payment.ErrNotConfigured)
	}

	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, s.upstream(err, user.ID, "customer")
	}
	if err := s.provider.AttachPaymentMethod(ctx, customerID, request.PaymentMethodID); err != nil {
		return nil, s.upstream(err, user.ID, "payment_method")
	}
	priceID, err := s.ensurePrice(ctx, plan)
	if err != nil {
		return nil, s.upstream(err, user.ID, "price")
	}

	sub, err := s.provider.CreateSubscription(ctx, &payment.SubscriptionRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		Metadata: map[string]string{
			metaUserID: user.ID.Hex(),
			"plan_id":  plan.ID.Hex(),
		},
	})
	if err != nil {
		return nil, s.upstream(err, user.ID, "subscription")
	}

	now := s.now().UTC()
	endDate := plan.Interval.AddTo(now)
	if !sub.CurrentPeriodEnd.IsZero() {
		endDate = sub.CurrentPeriodEnd
	}
	record := &models.UserSubscription{
		UserID:               user.ID,
		PlanID:               plan.ID,
		Status:               models.SubscriptionStatusActive,
		StartDate:            now,
		EndDate:              endDate,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.subscriptionRepo.Create(ctx, record); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.Conflict("You already have an active subscription")
		}
		return nil, utils.Internal("Failed to create subscription", err)
	}

	s.metrics.SubscriptionEvent("created")
	s.logger.LogUserAction(user.ID, "create_subscription", map[string]interface{}{
		"plan_id":         plan.ID.Hex(),
		"subscription_id": sub.ID,
	})
	return &SubscriptionResponse{
		SubscriptionID: sub.ID,
		ClientSecret:   sub.ClientSecret,
		Status:         sub.Status,
		EndDate:        endDate,
	}, nil
}

func (s *subscriptionService) upstream(err error, userID primitive.ObjectID, step string) error {
	s.logger.WithError(err).WithUserID(userID).WithField("step", step).Error("Subscription creation failed at payment processor")
	return utils.Upstream("Failed to create subscription", err)
}

// ensureCustomer reuses the saved processor customer unless it was deleted.
func (s *subscriptionService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		customer, err := s.provider.GetCustomer(ctx, user.StripeCustomerID)
		if err == nil && !customer.Deleted {
			return customer.ID, nil
		}
		if err != nil {
			s.logger.WithError(err).WithUserID(user.ID).Warn("Saved customer could not be retrieved, creating a new one")
		}
	}

	customer, err := s.provider.CreateCustomer(ctx, &payment.CustomerRequest{
		Email:    user.Email,
		Name:     user.Name,
		Phone:    user.Mobile,
		Metadata: map[string]string{metaUserID: user.ID.Hex()},
	})
	if err != nil {
		return "", err
	}
	if err := s.userRepo.SetStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", fmt.Errorf("failed to save customer id: %w", err)
	}
	user.StripeCustomerID = customer.ID
	return customer.ID, nil
}

// ensurePrice creates the processor product and price on first use.
func (s *subscriptionService) ensurePrice(ctx context.Context, plan *models.SubscriptionPlan) (string, error) {
	if plan.StripePriceID != "" {
		return plan.StripePriceID, nil
	}

	productID := plan.StripeProductID
	if productID == "" {
		id, err := s.provider.CreateProduct(ctx, plan.Name, plan.Description)
		if err != nil {
			return "", err
		}
		productID = id
	}

	priceID, err := s.provider.CreatePrice(ctx, &payment.PriceRequest{
		ProductID:   productID,
		AmountMinor: pricing.ToMinorUnits(plan.Price),
		Currency:    s.currency,
		Interval:    string(plan.Interval),
	})
	if err != nil {
		return "", err
	}

	if err := s.planRepo.SetStripeIDs(ctx, plan.ID, productID, priceID); err != nil {
		return "", fmt.Errorf("failed to save plan price: %w", err)
	}
	plan.StripeProductID = productID
	plan.StripePriceID = priceID
	return priceID, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, principal *models.Principal, request *validators.CancelSubscriptionRequest) (*models.UserSubscription, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	if strings.TrimSpace(request.SubscriptionID) == "" {
		return nil, utils.Invalid("Subscription ID is required")
	}

	sub, err := s.subscriptionRepo.FindActiveByStripeID(ctx, principal.UserID, request.SubscriptionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Subscription not found")
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if s.provider == nil {
		return nil, utils.Upstream("Subscriptions are not available", payment.ErrNotConfigured)
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, true); err != nil {
		s.logger.WithError(err).WithUserID(principal.UserID).Error("Failed to cancel subscription at payment processor")
		return nil, utils.Upstream("Failed to cancel subscription", err)
	}
	if err := s.subscriptionRepo.SetCancelAtPeriodEnd(ctx, sub.ID, true); err != nil {
		return nil, utils.Internal("Failed to cancel subscription", err)
	}
	sub.CancelAtPeriodEnd = true

	s.metrics.SubscriptionEvent("cancel_requested")
	s.logger.LogUserAction(principal.UserID, "cancel_subscription", map[string]interface{}{
		"subscription_id": sub.StripeSubscriptionID,
	})
	return sub, nil
}

func (s *subscriptionService) GetCurrentSubscription(ctx context.Context, principal *models.Principal) (*models.SubscriptionWithPlan, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	sub, err := s.subscriptionRepo.GetActiveWithPlan(ctx, principal.UserID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *subscriptionService) HandleSubscriptionEvent(ctx context.Context, event *payment.WebhookEvent) error {
	if event.Type == payment.EventInvoicePaymentFailed {
		s.metrics.SubscriptionEvent("invoice_payment_failed")
		s.logger.WithFields(map[string]interface{}{
			"event_id":        event.ID,
			"subscription_id": event.SubscriptionID,
		}).Warn("Subscription invoice payment failed")
		return nil
	}

	sub, err := s.subscriptionRepo.GetByStripeID(ctx, event.SubscriptionID)
	if errors.Is(err, interfaces.ErrNotFound) {
		s.logger.WithField("subscription_id", event.SubscriptionID).Debug("Ignoring event for unknown subscription")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}

	switch event.Type {
	case payment.EventSubscriptionDeleted:
		if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, models.SubscriptionStatusCanceled); err != nil {
			return fmt.Errorf("failed to update subscription status: %w", err)
		}
		s.metrics.SubscriptionEvent("canceled")
		s.logger.WithUserID(sub.UserID).WithField("subscription_id", sub.StripeSubscriptionID).Info("Subscription canceled")

	case payment.EventSubscriptionUpdated:
		if sub.CancelAtPeriodEnd != event.CancelAtPeriodEnd {
			if err := s.subscriptionRepo.SetCancelAtPeriodEnd(ctx, sub.ID, event.CancelAtPeriodEnd); err != nil {
				return fmt.Errorf("failed to update subscription: %w", err)
			}
		}
		if status, ok := subscriptionStatusFromProcessor(event.SubscriptionStatus); ok && status != sub.Status {
			if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, status); err != nil {
				return fmt.Errorf("failed to update subscription status: %w", err)
			}
			s.metrics.SubscriptionEvent(string(status))
		}
	}
	return nil
}

// subscriptionStatusFromProcessor maps terminal processor states onto the
// stored status. Non-terminal states leave the record unchanged.
func subscriptionStatusFromProcessor(status string) (models.SubscriptionStatus, bool) {
	switch status {
	case "canceled":
		return models.SubscriptionStatusCanceled, true
	case "incomplete_expired", "unpaid":
		return models.SubscriptionStatusExpired, true
	}
	return "", false
}
