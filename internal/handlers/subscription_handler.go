package handlers

import (
	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// ListPlans returns the active plans.
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

// ListAllPlans includes inactive plans.
func (h *SubscriptionHandler) ListAllPlans(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	plans, err := h.subscriptionService.ListAllPlans(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Plans retrieved successfully", plans)
}

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.CreatePlanRequest
	if !bindJSON(c, &request, validators.ValidateCreatePlan) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Plan created successfully", plan)
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.CreateSubscriptionRequest
	if !bindJSON(c, &request, validators.ValidateCreateSubscription) {
		return
	}

	response, err := h.subscriptionService.CreateSubscription(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Subscription created successfully", response)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.CancelSubscriptionRequest
	if !bindJSON(c, &request, validators.ValidateCancelSubscription) {
		return
	}

	subscription, err := h.subscriptionService.CancelSubscription(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Subscription canceled successfully", subscription)
}

// GetCurrentSubscription responds with null data when there is none.
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.GetCurrentSubscription(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if subscription == nil {
		utils.SuccessResponse(c, "No active subscription", nil)
		return
	}

	utils.SuccessResponse(c, "Subscription retrieved successfully", subscription)
}
