package interfaces

import (
	"context"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EnrollmentRepository interface {
	// Create returns ErrDuplicate when a completed enrollment already exists
	// for the same user and course.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Enrollment, error)
	FindCompleted(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Enrollment, error)
	MarkReceiptSent(ctx context.Context, id primitive.ObjectID) error

	ListCompletedByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Enrollment, error)
	// ListPaymentHistory returns completed enrollments with course and
	// discount resolved, newest payment first.
	ListPaymentHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentRecord, error)
	// ListReport returns completed enrollments with user and course resolved.
	ListReport(ctx context.Context, params *utils.PaginationParams) ([]*models.EnrollmentReport, int64, error)
}
