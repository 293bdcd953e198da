package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/pkg/cache"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWebhookFixture(provider *mockPaymentProvider, enrollments EnrollmentService, subscriptions SubscriptionService) WebhookService {
	cacheSvc := NewCacheService(cache.NewMemoryCache(), "test", time.Hour, logger.NewNop())
	return NewWebhookService([]payment.PaymentProvider{provider}, enrollments, subscriptions, cacheSvc, nil, logger.NewNop())
}

func TestWebhookUnknownProvider(t *testing.T) {
	svc := newWebhookFixture(&mockPaymentProvider{}, nil, nil)

	err := svc.HandleWebhook(context.Background(), "paypal", []byte(`{}`), "sig")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestWebhookInvalidSignature(t *testing.T) {
	provider := &mockPaymentProvider{}
	provider.On("ValidateWebhook", mock.Anything, mock.Anything, "bad").Return(nil, payment.ErrInvalidSignature)
	svc := newWebhookFixture(provider, nil, nil)

	err := svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "bad")
	assert.True(t, utils.IsKind(err, utils.KindInvalid))
}

func TestWebhookPaymentSucceededEnrollsOnce(t *testing.T) {
	provider := &mockPaymentProvider{}
	f := newEnrollmentFixture()
	f.service.payments = provider
	userID := primitive.NewObjectID()
	course := f.course(100)
	intent := &payment.Intent{
		ID:          "pi_1",
		Status:      payment.IntentStatusSucceeded,
		AmountMinor: 10000,
		Metadata:    map[string]string{"user_id": userID.Hex(), "course_id": course.ID.Hex()},
	}

	provider.On("ValidateWebhook", mock.Anything, mock.Anything, "sig").Return(&payment.WebhookEvent{
		ID: "evt_1", Type: payment.EventPaymentSucceeded, IntentID: "pi_1",
	}, nil)
	provider.On("GetPaymentIntent", mock.Anything, "pi_1").Return(intent, nil).Once()
	f.enrollments.On("FindCompleted", mock.Anything, userID, course.ID).Return(nil, interfaces.ErrNotFound)
	f.expectCompletion(userID, course)

	svc := newWebhookFixture(provider, f.service, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "sig"))
	// A redelivery of the same event is skipped.
	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "sig"))

	f.enrollments.AssertNumberOfCalls(t, "Create", 1)
	provider.AssertNumberOfCalls(t, "GetPaymentIntent", 1)
}

func TestWebhookFailureAllowsRedelivery(t *testing.T) {
	provider := &mockPaymentProvider{}
	provider.On("ValidateWebhook", mock.Anything, mock.Anything, "sig").Return(&payment.WebhookEvent{
		ID: "evt_2", Type: payment.EventPaymentSucceeded, IntentID: "pi_2",
	}, nil)
	provider.On("GetPaymentIntent", mock.Anything, "pi_2").Return(nil, errors.New("timeout")).Once()
	provider.On("GetPaymentIntent", mock.Anything, "pi_2").Return(&payment.Intent{ID: "pi_2", Status: payment.IntentStatusSucceeded}, nil).Once()

	f := newEnrollmentFixture()
	svc := newWebhookFixture(provider, f.service, nil)

	err := svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "sig")
	assert.True(t, utils.IsKind(err, utils.KindUpstreamFailure))

	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "sig"))
	provider.AssertNumberOfCalls(t, "GetPaymentIntent", 2)
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	provider := &mockPaymentProvider{}
	provider.On("ValidateWebhook", mock.Anything, mock.Anything, "sig").Return(&payment.WebhookEvent{
		ID: "evt_3", Type: payment.EventSubscriptionDeleted, SubscriptionID: "sub_1",
	}, nil)

	sf := newSubscriptionFixture(true)
	sub := &models.UserSubscription{ID: primitive.NewObjectID(), StripeSubscriptionID: "sub_1", Status: models.SubscriptionStatusActive}
	sf.subs.On("GetByStripeID", mock.Anything, "sub_1").Return(sub, nil)
	sf.subs.On("UpdateStatus", mock.Anything, sub.ID, models.SubscriptionStatusCanceled).Return(nil)

	svc := newWebhookFixture(provider, nil, sf.service)
	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", []byte(`{}`), "sig"))
	sf.subs.AssertExpectations(t)
}
