package validators

import "strings"

type PaymentIntentRequest struct {
	CourseID   string `json:"course_id" validate:"required,object_id"`
	DiscountID string `json:"discount_id" validate:"omitempty,object_id"`
}

type ConfirmEnrollmentRequest struct {
	CourseID        string `json:"course_id" validate:"required,object_id"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required,max=255"`
	DiscountID      string `json:"discount_id" validate:"omitempty,object_id"`
}

type FreeEnrollmentRequest struct {
	CourseID   string `json:"course_id" validate:"required,object_id"`
	DiscountID string `json:"discount_id" validate:"omitempty,object_id"`
}

type CreatePlanRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Description string   `json:"description" validate:"max=2000"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Interval    string   `json:"interval" validate:"required,plan_interval"`
	Features    []string `json:"features" validate:"omitempty,max=50,dive,required,max=200"`
	IsActive    *bool    `json:"is_active"`
}

type CreateSubscriptionRequest struct {
	PlanID          string `json:"plan_id" validate:"required,object_id"`
	PaymentMethodID string `json:"payment_method_id" validate:"required,max=255"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required,max=255"`
}

func ValidatePaymentIntent(req *PaymentIntentRequest) error {
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.DiscountID = strings.TrimSpace(req.DiscountID)
	return ValidateStruct(req).AsAppError()
}

func ValidateConfirmEnrollment(req *ConfirmEnrollmentRequest) error {
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	req.DiscountID = strings.TrimSpace(req.DiscountID)
	return ValidateStruct(req).AsAppError()
}

func ValidateFreeEnrollment(req *FreeEnrollmentRequest) error {
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.DiscountID = strings.TrimSpace(req.DiscountID)
	return ValidateStruct(req).AsAppError()
}

func ValidateCreatePlan(req *CreatePlanRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Interval = strings.ToLower(strings.TrimSpace(req.Interval))
	return ValidateStruct(req).AsAppError()
}

func ValidateCreateSubscription(req *CreateSubscriptionRequest) error {
	req.PlanID = strings.TrimSpace(req.PlanID)
	req.PaymentMethodID = strings.TrimSpace(req.PaymentMethodID)
	return ValidateStruct(req).AsAppError()
}

func ValidateCancelSubscription(req *CancelSubscriptionRequest) error {
	req.SubscriptionID = strings.TrimSpace(req.SubscriptionID)
	return ValidateStruct(req).AsAppError()
}
