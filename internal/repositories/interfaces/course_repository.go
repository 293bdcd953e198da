package interfaces

import (
	"context"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Course, error)
	// ListAll returns every course, newest first.
	ListAll(ctx context.Context) ([]*models.Course, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Course, int64, error)

	// AddEnrolledUser is idempotent.
	AddEnrolledUser(ctx context.Context, courseID, userID primitive.ObjectID) error
}
