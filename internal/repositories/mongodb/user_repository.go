package mongodb

import (
	"context"
	"fmt"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
		cache:      cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.EnrolledCourses == nil {
		user.EnrolledCourses = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return insertError(err, "create user")
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFoundOr(err, "get user")
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, notFoundOr(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"mobile": mobile}).Decode(&user); err != nil {
		return nil, notFoundOr(err, "get user by mobile")
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"$or": []bson.M{
			{"email": email},
			{"mobile": mobile},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) AddEnrolledCourse(ctx context.Context, userID, courseID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"enrolled_courses": courseID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add enrolled course: %w", err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateUserCache(ctx, userID)
	return nil
}

func (r *userRepository) SetStripeCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"stripe_customer_id": customerID, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to save stripe customer: %w", err)
	}

	r.invalidateUserCache(ctx, userID)
	return nil
}

// Cache operations

// userCacheEntry keeps fields that models.User hides from JSON. The
// password hash is never cached.
type userCacheEntry struct {
	ID               primitive.ObjectID   `json:"id"`
	Name             string               `json:"name"`
	Email            string               `json:"email"`
	Mobile           string               `json:"mobile"`
	Role             models.Role          `json:"role"`
	EnrolledCourses  []primitive.ObjectID `json:"enrolled_courses"`
	StripeCustomerID string               `json:"stripe_customer_id"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func userCacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("user:%s", id.Hex())
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	entry := userCacheEntry{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Mobile:           user.Mobile,
		Role:             user.Role,
		EnrolledCourses:  user.EnrolledCourses,
		StripeCustomerID: user.StripeCustomerID,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
	_ = r.cache.Set(ctx, userCacheKey(user.ID), entry, defaultCacheTTL)
}

func (r *userRepository) getUserFromCache(ctx context.Context, id primitive.ObjectID) *models.User {
	if r.cache == nil {
		return nil
	}

	var entry userCacheEntry
	if err := r.cache.Get(ctx, userCacheKey(id), &entry); err != nil {
		return nil
	}
	return &models.User{
		ID:               entry.ID,
		Name:             entry.Name,
		Email:            entry.Email,
		Mobile:           entry.Mobile,
		Role:             entry.Role,
		EnrolledCourses:  entry.EnrolledCourses,
		StripeCustomerID: entry.StripeCustomerID,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
	}
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, userCacheKey(id))
	}
}
