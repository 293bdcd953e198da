package services

import (
	"context"
	"testing"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type subscriptionFixture struct {
	plans    *mockPlanRepo
	subs     *mockUserSubscriptionRepo
	users    *mockUserRepo
	provider *mockSubscriptionProvider
	service  SubscriptionService
}

func newSubscriptionFixture(withProvider bool) *subscriptionFixture {
	f := &subscriptionFixture{
		plans:    &mockPlanRepo{},
		subs:     &mockUserSubscriptionRepo{},
		users:    &mockUserRepo{},
		provider: &mockSubscriptionProvider{},
	}
	var provider payment.SubscriptionProvider
	if withProvider {
		provider = f.provider
	}
	f.service = NewSubscriptionService(f.plans, f.subs, f.users, provider, "usd", nil, logger.NewNop())
	return f
}

func TestCreateSubscriptionInactivePlan(t *testing.T) {
	f := newSubscriptionFixture(true)
	plan := &models.SubscriptionPlan{ID: primitive.NewObjectID(), IsActive: false}
	f.plans.On("GetByID", mock.Anything, plan.ID).Return(plan, nil)

	_, err := f.service.CreateSubscription(context.Background(), userPrincipal(), &validators.CreateSubscriptionRequest{
		PlanID: plan.ID.Hex(), PaymentMethodID: "pm_1",
	})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Equal(t, "Subscription plan not found or inactive", appMessage(err))
}

func TestCreateSubscriptionAlreadySubscribed(t *testing.T) {
	f := newSubscriptionFixture(true)
	principal := userPrincipal()
	plan := &models.SubscriptionPlan{ID: primitive.NewObjectID(), IsActive: true}
	f.plans.On("GetByID", mock.Anything, plan.ID).Return(plan, nil)
	f.subs.On("FindActiveByUser", mock.Anything, principal.UserID).Return(&models.UserSubscription{}, nil)

	_, err := f.service.CreateSubscription(context.Background(), principal, &validators.CreateSubscriptionRequest{
		PlanID: plan.ID.Hex(), PaymentMethodID: "pm_1",
	})
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	assert.Equal(t, "You already have an active subscription", appMessage(err))
}

func TestCreateSubscriptionWithoutProvider(t *testing.T) {
	f := newSubscriptionFixture(false)
	principal := userPrincipal()
	plan := &models.SubscriptionPlan{ID: primitive.NewObjectID(), IsActive: true}
	f.plans.On("GetByID", mock.Anything, plan.ID).Return(plan, nil)
	f.subs.On("FindActiveByUser", mock.Anything, principal.UserID).Return(nil, interfaces.ErrNotFound)

	_, err := f.service.CreateSubscription(context.Background(), principal, &validators.CreateSubscriptionRequest{
		PlanID: plan.ID.Hex(), PaymentMethodID: "pm_1",
	})
	assert.True(t, utils.IsKind(err, utils.KindUpstreamFailure))
}

func TestCreateSubscriptionCreatesCustomerAndPrice(t *testing.T) {
	f := newSubscriptionFixture(true)
	principal := userPrincipal()
	user := &models.User{ID: principal.UserID, Name: "Ada", Email: "ada@example.com"}
	plan := &models.SubscriptionPlan{ID: primitive.NewObjectID(), Name: "Pro", Price: 19.99, Interval: models.PlanIntervalMonth, IsActive: true}
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	f.plans.On("GetByID", mock.Anything, plan.ID).Return(plan, nil)
	f.subs.On("FindActiveByUser", mock.Anything, user.ID).Return(nil, interfaces.ErrNotFound)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.provider.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil)
	f.users.On("SetStripeCustomerID", mock.Anything, user.ID, "cus_1").Return(nil)
	f.provider.On("AttachPaymentMethod", mock.Anything, "cus_1", "pm_1").Return(nil)
	f.provider.On("CreateProduct", mock.Anything, "Pro", "").Return("prod_1", nil)
	f.provider.On("CreatePrice", mock.Anything, mock.MatchedBy(func(r *payment.PriceRequest) bool {
		return r.ProductID == "prod_1" && r.AmountMinor == 1999 && r.Interval == "month"
	})).Return("price_1", nil)
	f.plans.On("SetStripeIDs", mock.Anything, plan.ID, "prod_1", "price_1").Return(nil)
	f.provider.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(r *payment.SubscriptionRequest) bool {
		return r.CustomerID == "cus_1" && r.PriceID == "price_1"
	})).Return(&payment.Subscription{ID: "sub_1", Status: "incomplete", ClientSecret: "pi_secret", CurrentPeriodEnd: periodEnd}, nil)
	f.subs.On("Create", mock.Anything, mock.MatchedBy(func(s *models.UserSubscription) bool {
		return s.StripeSubscriptionID == "sub_1" && s.Status == models.SubscriptionStatusActive && s.EndDate.Equal(periodEnd)
	})).Return(nil)

	resp, err := f.service.CreateSubscription(context.Background(), principal, &validators.CreateSubscriptionRequest{
		PlanID: plan.ID.Hex(), PaymentMethodID: "pm_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", resp.SubscriptionID)
	assert.Equal(t, "pi_secret", resp.ClientSecret)
	f.provider.AssertExpectations(t)
	f.plans.AssertExpectations(t)
}

func TestCancelSubscriptionNotFound(t *testing.T) {
	f := newSubscriptionFixture(true)
	principal := userPrincipal()
	f.subs.On("FindActiveByStripeID", mock.Anything, principal.UserID, "sub_x").Return(nil, interfaces.ErrNotFound)

	_, err := f.service.CancelSubscription(context.Background(), principal, &validators.CancelSubscriptionRequest{SubscriptionID: "sub_x"})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Equal(t, "Subscription not found", appMessage(err))
}

func TestCancelSubscriptionAtPeriodEnd(t *testing.T) {
	f := newSubscriptionFixture(true)
	principal := userPrincipal()
	sub := &models.UserSubscription{ID: primitive.NewObjectID(), UserID: principal.UserID, StripeSubscriptionID: "sub_1"}

	f.subs.On("FindActiveByStripeID", mock.Anything, principal.UserID, "sub_1").Return(sub, nil)
	f.provider.On("SetCancelAtPeriodEnd", mock.Anything, "sub_1", true).Return(&payment.Subscription{ID: "sub_1", CancelAtPeriodEnd: true}, nil)
	f.subs.On("SetCancelAtPeriodEnd", mock.Anything, sub.ID, true).Return(nil)

	updated, err := f.service.CancelSubscription(context.Background(), principal, &validators.CancelSubscriptionRequest{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.True(t, updated.CancelAtPeriodEnd)
}

func TestSubscriptionDeletedEventCancels(t *testing.T) {
	f := newSubscriptionFixture(true)
	sub := &models.UserSubscription{ID: primitive.NewObjectID(), StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive}

	f.subs.On("GetByStripeID", mock.Anything, "sub_1").Return(sub, nil)
	f.subs.On("UpdateStatus", mock.Anything, sub.ID, models.SubscriptionStatusCanceled).Return(nil)

	err := f.service.HandleSubscriptionEvent(context.Background(), &payment.WebhookEvent{
		Type:           payment.EventSubscriptionDeleted,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	f.subs.AssertExpectations(t)
}

func TestSubscriptionEventForUnknownSubscription(t *testing.T) {
	f := newSubscriptionFixture(true)
	f.subs.On("GetByStripeID", mock.Anything, "sub_x").Return(nil, interfaces.ErrNotFound)

	err := f.service.HandleSubscriptionEvent(context.Background(), &payment.WebhookEvent{
		Type:           payment.EventSubscriptionUpdated,
		SubscriptionID: "sub_x",
	})
	assert.NoError(t, err)
}

func TestCurrentSubscriptionNone(t *testing.T) {
	f := newSubscriptionFixture(true)
	principal := userPrincipal()
	f.subs.On("GetActiveWithPlan", mock.Anything, principal.UserID).Return(nil, interfaces.ErrNotFound)

	sub, err := f.service.GetCurrentSubscription(context.Background(), principal)
	require.NoError(t, err)
	assert.Nil(t, sub)
}
