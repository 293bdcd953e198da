package interfaces

import (
	"context"

	"ourskilllab/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByMobile(ctx context.Context, mobile string) (*models.User, error)
	ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error)

	// AddEnrolledCourse is idempotent.
	AddEnrolledCourse(ctx context.Context, userID, courseID primitive.ObjectID) error
	SetStripeCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error
}
