package interfaces

import (
	"context"

	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *models.Discount) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error)
	GetByCode(ctx context.Context, code string) (*models.Discount, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Discount, int64, error)
	// ToggleActive flips is_active and returns the updated discount.
	ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Discount, error)
}
