package handlers

import (
	"net/http"

	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

func (h *EnrollmentHandler) CreatePaymentIntent(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.PaymentIntentRequest
	if !bindJSON(c, &request, validators.ValidatePaymentIntent) {
		return
	}

	response, err := h.enrollmentService.CreatePaymentIntent(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Payment intent created", response)
}

// ConfirmEnrollment completes an enrollment after the client-side payment.
func (h *EnrollmentHandler) ConfirmEnrollment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.ConfirmEnrollmentRequest
	if !bindJSON(c, &request, validators.ValidateConfirmEnrollment) {
		return
	}

	enrollment, err := h.enrollmentService.ConfirmEnrollment(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Enrollment completed", enrollment)
}

func (h *EnrollmentHandler) EnrollFree(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var request validators.FreeEnrollmentRequest
	if !bindJSON(c, &request, validators.ValidateFreeEnrollment) {
		return
	}

	enrollment, err := h.enrollmentService.EnrollFree(c.Request.Context(), principal, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Enrollment completed", enrollment)
}

func (h *EnrollmentHandler) ListMyCourses(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	courses, err := h.enrollmentService.ListEnrolledCourses(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Enrolled courses retrieved successfully", courses, &utils.Meta{Count: len(courses)})
}

func (h *EnrollmentHandler) GetPaymentHistory(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	history, err := h.enrollmentService.GetPaymentHistory(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment history retrieved successfully", history)
}

// GetReceipt renders the receipt for an enrollment as an HTML page.
func (h *EnrollmentHandler) GetReceipt(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	html, err := h.enrollmentService.GetReceipt(c.Request.Context(), principal, enrollmentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// EnrollmentReport lists every enrollment with user and course details.
func (h *EnrollmentHandler) EnrollmentReport(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "payment_date", "payment_amount")
	report, total, err := h.enrollmentService.EnrollmentReport(c.Request.Context(), principal, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}
	utils.SuccessResponseWithMeta(c, "Enrollments retrieved successfully", report, meta)
}
