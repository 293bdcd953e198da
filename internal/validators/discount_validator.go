package validators

import (
	"strings"
	"time"
)

type CreateDiscountRequest struct {
	Code string `json:"code" validate:"required,discount_code"`
	// Pointers so an explicit 0 passes required.
	Percentage *float64  `json:"percentage" validate:"required,gte=0,lte=100"`
	MaxAmount  *float64  `json:"max_amount" validate:"required,gte=0"`
	ValidFrom  time.Time `json:"valid_from" validate:"required"`
	ValidUntil time.Time `json:"valid_until" validate:"required,gtfield=ValidFrom"`
	IsActive   *bool     `json:"is_active"`
}

type DiscountQuery struct {
	Code     string `form:"code" json:"code" validate:"required,max=32"`
	CourseID string `form:"course_id" json:"course_id" validate:"required,object_id"`
}

func ValidateCreateDiscount(req *CreateDiscountRequest) error {
	req.Code = strings.TrimSpace(req.Code)
	return ValidateStruct(req).AsAppError()
}

func ValidateDiscountQuery(req *DiscountQuery) error {
	req.Code = strings.TrimSpace(req.Code)
	req.CourseID = strings.TrimSpace(req.CourseID)
	return ValidateStruct(req).AsAppError()
}
