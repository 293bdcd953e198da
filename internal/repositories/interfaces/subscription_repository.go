package interfaces

import (
	"context"

	"ourskilllab/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionPlanRepository interface {
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error)
	// ListActive returns active plans, cheapest first.
	ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error)
	ListAll(ctx context.Context) ([]*models.SubscriptionPlan, error)
	SetStripeIDs(ctx context.Context, id primitive.ObjectID, productID, priceID string) error
}

type UserSubscriptionRepository interface {
	// Create returns ErrDuplicate when the user already has an active
	// subscription.
	Create(ctx context.Context, sub *models.UserSubscription) error
	FindActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserSubscription, error)
	FindActiveByStripeID(ctx context.Context, userID primitive.ObjectID, stripeSubscriptionID string) (*models.UserSubscription, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.UserSubscription, error)
	GetActiveWithPlan(ctx context.Context, userID primitive.ObjectID) (*models.SubscriptionWithPlan, error)
	ListByUserWithPlan(ctx context.Context, userID primitive.ObjectID) ([]*models.SubscriptionWithPlan, error)

	SetCancelAtPeriodEnd(ctx context.Context, id primitive.ObjectID, cancel bool) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus) error
}
