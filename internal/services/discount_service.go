package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/pricing"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountService interface {
	CreateDiscount(ctx context.Context, principal *models.Principal, request *validators.CreateDiscountRequest) (*models.Discount, error)
	ListDiscounts(ctx context.Context, principal *models.Principal, params *utils.PaginationParams) ([]*models.Discount, int64, error)
	ToggleDiscount(ctx context.Context, principal *models.Principal, discountID primitive.ObjectID) (*models.Discount, error)

	// QuoteDiscount prices a course with a discount code.
	QuoteDiscount(ctx context.Context, code string, courseID primitive.ObjectID) (*pricing.Quote, error)
}

type discountService struct {
	discountRepo interfaces.DiscountRepository
	courseRepo   interfaces.CourseRepository
	now          func() time.Time
	logger       *logger.Logger
}

func NewDiscountService(
	discountRepo interfaces.DiscountRepository,
	courseRepo interfaces.CourseRepository,
	logger *logger.Logger,
) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		courseRepo:   courseRepo,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *discountService) CreateDiscount(ctx context.Context, principal *models.Principal, request *validators.CreateDiscountRequest) (*models.Discount, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}
	if err := pricing.ValidateTerms(*request.Percentage, *request.MaxAmount, request.ValidFrom, request.ValidUntil); err != nil {
		return nil, err
	}

	_, err := s.discountRepo.GetByCode(ctx, request.Code)
	if err == nil {
		return nil, utils.Conflict("Discount code already exists")
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check discount code: %w", err)
	}

	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}

	now := s.now().UTC()
	discount := &models.Discount{
		Code:       request.Code,
		Percentage: *request.Percentage,
		MaxAmount:  utils.RoundCurrency(*request.MaxAmount),
		ValidFrom:  request.ValidFrom.UTC(),
		ValidUntil: request.ValidUntil.UTC(),
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.Conflict("Discount code already exists")
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.LogUserAction(principal.UserID, "create_discount", map[string]interface{}{
		"discount_id": discount.ID.Hex(),
		"code":        discount.Code,
	})
	return discount, nil
}

func (s *discountService) ListDiscounts(ctx context.Context, principal *models.Principal, params *utils.PaginationParams) ([]*models.Discount, int64, error) {
	if !principal.IsAdmin() {
		return nil, 0, utils.NotAuthorized("Not authorized")
	}
	discounts, total, err := s.discountRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, total, nil
}

func (s *discountService) ToggleDiscount(ctx context.Context, principal *models.Principal, discountID primitive.ObjectID) (*models.Discount, error) {
	if !principal.IsAdmin() {
		return nil, utils.NotAuthorized("Not authorized")
	}
	discount, err := s.discountRepo.ToggleActive(ctx, discountID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Discount not found")
		}
		return nil, fmt.Errorf("failed to toggle discount: %w", err)
	}

	s.logger.LogUserAction(principal.UserID, "toggle_discount", map[string]interface{}{
		"discount_id": discount.ID.Hex(),
		"is_active":   discount.IsActive,
	})
	return discount, nil
}

func (s *discountService) QuoteDiscount(ctx context.Context, code string, courseID primitive.ObjectID) (*pricing.Quote, error) {
	discount, err := s.discountRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Invalid or expired discount code")
		}
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("Course not found")
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return pricing.Evaluate(course.Price, discount, s.now())
}
