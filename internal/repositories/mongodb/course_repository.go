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

type courseRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewCourseRepository(db *mongo.Database, cache CacheService) interfaces.CourseRepository {
	return &courseRepository{
		collection: db.Collection(database.CollectionCourses),
		cache:      cache,
	}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now()
	course.ID = primitive.NewObjectID()
	course.CreatedAt = now
	course.UpdatedAt = now
	if course.EnrolledUsers == nil {
		course.EnrolledUsers = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, course); err != nil {
		return insertError(err, "create course")
	}

	r.invalidateList(ctx)
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	cacheKey := utils.CacheKeyCourse + id.Hex()
	if r.cache != nil {
		var course models.Course
		if err := r.cache.Get(ctx, cacheKey, &course); err == nil {
			return &course, nil
		}
	}

	var course models.Course
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		return nil, notFoundOr(err, "get course")
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, course, defaultCacheTTL)
	}
	return &course, nil
}

func (r *courseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find courses: %w", err)
	}

	courses, err := decodeAll[models.Course](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	return courses, nil
}

func (r *courseRepository) ListAll(ctx context.Context) ([]*models.Course, error) {
	if r.cache != nil {
		var courses []*models.Course
		if err := r.cache.Get(ctx, utils.CacheKeyCourseList, &courses); err == nil {
			return courses, nil
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find courses: %w", err)
	}

	courses, err := decodeAll[models.Course](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, utils.CacheKeyCourseList, courses, defaultCacheTTL)
	}
	return courses, nil
}

func (r *courseRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Course, int64, error) {
	filter := bson.M{}
	if params.Search != "" {
		filter = params.GetSearchFilter([]string{"title", "instructor", "description"})
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find courses: %w", err)
	}

	courses, err := decodeAll[models.Course](ctx, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode courses: %w", err)
	}
	return courses, total, nil
}

func (r *courseRepository) AddEnrolledUser(ctx context.Context, courseID, userID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{
			"$addToSet": bson.M{"enrolled_users": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add enrolled user: %w", err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *courseRepository) invalidateList(ctx context.Context) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheKeyCourseList)
	}
}
