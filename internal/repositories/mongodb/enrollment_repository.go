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

type enrollmentRepository struct {
	collection *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) interfaces.EnrollmentRepository {
	return &enrollmentRepository{
		collection: db.Collection(database.CollectionEnrollments),
	}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now()
	enrollment.ID = primitive.NewObjectID()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, enrollment); err != nil {
		return insertError(err, "create enrollment")
	}
	return nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment); err != nil {
		return nil, notFoundOr(err, "get enrollment")
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindCompleted(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.collection.FindOne(ctx, bson.M{
		"user":           userID,
		"course":         courseID,
		"payment_status": models.PaymentStatusCompleted,
	}).Decode(&enrollment)
	if err != nil {
		return nil, notFoundOr(err, "find completed enrollment")
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) MarkReceiptSent(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"receipt_sent": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark receipt sent: %w", err)
	}
	return nil
}

func (r *enrollmentRepository) ListCompletedByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "payment_date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{
		"user":           userID,
		"payment_status": models.PaymentStatusCompleted,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollments: %w", err)
	}

	enrollments, err := decodeAll[models.Enrollment](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) ListPaymentHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentRecord, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.M{"user": userID, "payment_status": models.PaymentStatusCompleted}}},
		{{Key: "$sort", Value: bson.D{{Key: "payment_date", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(database.CollectionCourses, "course", "course_doc",
		bson.M{"title": 1, "price": 1, "type": 1})...)
	pipeline = append(pipeline, lookupOne(database.CollectionDiscounts, "discount_applied", "discount_doc",
		bson.M{"code": 1, "percentage": 1})...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payment history: %w", err)
	}

	records, err := decodeAll[models.PaymentRecord](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payment history: %w", err)
	}
	return records, nil
}

func (r *enrollmentRepository) ListReport(ctx context.Context, params *utils.PaginationParams) ([]*models.EnrollmentReport, int64, error) {
	match := bson.M{"payment_status": models.PaymentStatusCompleted}

	total, err := r.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	pipeline := []bson.D{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, params.GetPipelineStages()...)
	pipeline = append(pipeline, lookupOne(database.CollectionUsers, "user", "user_doc",
		bson.M{"name": 1, "email": 1, "mobile": 1})...)
	pipeline = append(pipeline, lookupOne(database.CollectionCourses, "course", "course_doc",
		bson.M{"title": 1, "price": 1, "type": 1})...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to aggregate enrollment report: %w", err)
	}

	reports, err := decodeAll[models.EnrollmentReport](ctx, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode enrollment report: %w", err)
	}
	return reports, total, nil
}
