package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type subscriptionPlanRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewSubscriptionPlanRepository(db *mongo.Database, cache CacheService) interfaces.SubscriptionPlanRepository {
	return &subscriptionPlanRepository{
		collection: db.Collection(database.CollectionSubscriptionPlans),
		cache:      cache,
	}
}

func (r *subscriptionPlanRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	now := time.Now()
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Features == nil {
		plan.Features = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, plan); err != nil {
		return insertError(err, "create subscription plan")
	}

	r.invalidateActive(ctx)
	return nil
}

func (r *subscriptionPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, notFoundOr(err, "get subscription plan")
	}
	return &plan, nil
}

func (r *subscriptionPlanRepository) ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	if r.cache != nil {
		var plans []*models.SubscriptionPlan
		if err := r.cache.Get(ctx, utils.CacheKeyActivePlans, &plans); err == nil {
			return plans, nil
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active plans: %w", err)
	}

	plans, err := decodeAll[models.SubscriptionPlan](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, utils.CacheKeyActivePlans, plans, defaultCacheTTL)
	}
	return plans, nil
}

func (r *subscriptionPlanRepository) ListAll(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find plans: %w", err)
	}

	plans, err := decodeAll[models.SubscriptionPlan](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}

func (r *subscriptionPlanRepository) SetStripeIDs(ctx context.Context, id primitive.ObjectID, productID, priceID string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"stripe_product_id": productID,
			"stripe_price_id":   priceID,
			"updated_at":        time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to save plan stripe ids: %w", err)
	}
	return nil
}

func (r *subscriptionPlanRepository) invalidateActive(ctx context.Context) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheKeyActivePlans)
	}
}

type userSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewUserSubscriptionRepository(db *mongo.Database) interfaces.UserSubscriptionRepository {
	return &userSubscriptionRepository{
		collection: db.Collection(database.CollectionUserSubscriptions),
	}
}

func (r *userSubscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	now := time.Now()
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		return insertError(err, "create user subscription")
	}
	return nil
}

func (r *userSubscriptionRepository) findOne(ctx context.Context, filter bson.M, action string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.collection.FindOne(ctx, filter).Decode(&sub); err != nil {
		return nil, notFoundOr(err, action)
	}
	return &sub, nil
}

func (r *userSubscriptionRepository) FindActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserSubscription, error) {
	return r.findOne(ctx, bson.M{"user": userID, "status": models.SubscriptionStatusActive}, "find active subscription")
}

func (r *userSubscriptionRepository) FindActiveByStripeID(ctx context.Context, userID primitive.ObjectID, stripeSubscriptionID string) (*models.UserSubscription, error) {
	return r.findOne(ctx, bson.M{
		"user":                   userID,
		"stripe_subscription_id": stripeSubscriptionID,
		"status":                 models.SubscriptionStatusActive,
	}, "find subscription")
}

func (r *userSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.UserSubscription, error) {
	return r.findOne(ctx, bson.M{"stripe_subscription_id": stripeSubscriptionID}, "get subscription by stripe id")
}

func (r *userSubscriptionRepository) withPlan(ctx context.Context, match bson.M) ([]*models.SubscriptionWithPlan, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(database.CollectionSubscriptionPlans, "plan", "plan_doc", nil)...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate subscriptions: %w", err)
	}

	subs, err := decodeAll[models.SubscriptionWithPlan](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

func (r *userSubscriptionRepository) GetActiveWithPlan(ctx context.Context, userID primitive.ObjectID) (*models.SubscriptionWithPlan, error) {
	subs, err := r.withPlan(ctx, bson.M{"user": userID, "status": models.SubscriptionStatusActive})
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return subs[0], nil
}

func (r *userSubscriptionRepository) ListByUserWithPlan(ctx context.Context, userID primitive.ObjectID) ([]*models.SubscriptionWithPlan, error) {
	return r.withPlan(ctx, bson.M{"user": userID})
}

func (r *userSubscriptionRepository) update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userSubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, id primitive.ObjectID, cancel bool) error {
	return r.update(ctx, id, bson.M{"cancel_at_period_end": cancel})
}

func (r *userSubscriptionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus) error {
	err := r.update(ctx, id, bson.M{"status": status})
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(interfaces.ErrDuplicate, err)
	}
	return err
}
