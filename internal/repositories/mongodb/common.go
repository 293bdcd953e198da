package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CacheService is the read-through cache used by repositories. A nil
// CacheService disables caching.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const defaultCacheTTL = 5 * time.Minute

// notFoundOr maps mongo.ErrNoDocuments to interfaces.ErrNotFound and wraps
// everything else.
func notFoundOr(err error, action string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func insertError(err error, action string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", action, interfaces.ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]*T, error) {
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, cursor.Err()
}

// lookupOne builds the $lookup and $unwind stages that resolve a single
// reference into field as.
func lookupOne(from, localField, as string, project bson.M) []bson.D {
	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$ref"}}}}}}},
	}
	if project != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})
	}

	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{{Key: "ref", Value: "$" + localField}}},
			{Key: "pipeline", Value: pipeline},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}
