package mongodb

import (
	"context"
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

type discountRepository struct {
	collection *mongo.Collection
}

func NewDiscountRepository(db *mongo.Database) interfaces.DiscountRepository {
	return &discountRepository{
		collection: db.Collection(database.CollectionDiscounts),
	}
}

func (r *discountRepository) Create(ctx context.Context, discount *models.Discount) error {
	now := time.Now()
	discount.ID = primitive.NewObjectID()
	discount.CreatedAt = now
	discount.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, discount); err != nil {
		return insertError(err, "create discount")
	}
	return nil
}

func (r *discountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	var discount models.Discount
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&discount); err != nil {
		return nil, notFoundOr(err, "get discount")
	}
	return &discount, nil
}

func (r *discountRepository) GetByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&discount); err != nil {
		return nil, notFoundOr(err, "get discount by code")
	}
	return &discount, nil
}

func (r *discountRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Discount, int64, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter = params.GetSearchFilter([]string{"code"})
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count discounts: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find discounts: %w", err)
	}

	discounts, err := decodeAll[models.Discount](ctx, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode discounts: %w", err)
	}
	return discounts, total, nil
}

// ToggleActive flips the flag in a single update so concurrent toggles never
// read a stale value.
func (r *discountRepository) ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: bson.D{{Key: "$not", Value: "$is_active"}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var discount models.Discount
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&discount); err != nil {
		return nil, notFoundOr(err, "toggle discount")
	}
	return &discount, nil
}
