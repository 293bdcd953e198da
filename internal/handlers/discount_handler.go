package handlers

import (
	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
)

type DiscountHandler struct {
	discountService services.DiscountService
}

func NewDiscountHandler(discountService services.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// ValidateDiscount quotes a course price with the code from the query string.
func (h *DiscountHandler) ValidateDiscount(c *gin.Context) {
	var query validators.DiscountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidRequest)
		return
	}
	if err := validators.ValidateDiscountQuery(&query); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	courseID, err := validators.ParseObjectID(query.CourseID, "course_id")
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	quote, err := h.discountService.QuoteDiscount(c.Request.Context(), query.Code, courseID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Discount applied", quote)
}

func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.CreateDiscountRequest
	if !bindJSON(c, &request, validators.ValidateCreateDiscount) {
		return
	}

	discount, err := h.discountService.CreateDiscount(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Discount created successfully", discount)
}

func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "code", "valid_until")
	discounts, total, err := h.discountService.ListDiscounts(c.Request.Context(), principal, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}
	utils.SuccessResponseWithMeta(c, "Discounts retrieved successfully", discounts, meta)
}

func (h *DiscountHandler) ToggleDiscount(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	discountID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	discount, err := h.discountService.ToggleDiscount(c.Request.Context(), principal, discountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Discount updated successfully", discount)
}
