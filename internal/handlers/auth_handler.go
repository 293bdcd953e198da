package handlers

import (
	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a user account. Login happens through OTP.
func (h *AuthHandler) Register(c *gin.Context) {
	var request validators.RegisterRequest
	if !bindJSON(c, &request, validators.ValidateRegister) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "User registered successfully", user)
}

func (h *AuthHandler) RequestMobileOTP(c *gin.Context) {
	var request validators.MobileOTPRequest
	if !bindJSON(c, &request, validators.ValidateMobileOTP) {
		return
	}

	response, err := h.authService.RequestMobileOTP(c.Request.Context(), request.Mobile)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent successfully", response)
}

func (h *AuthHandler) RequestEmailOTP(c *gin.Context) {
	var request validators.EmailOTPRequest
	if !bindJSON(c, &request, validators.ValidateEmailOTP) {
		return
	}

	response, err := h.authService.RequestEmailOTP(c.Request.Context(), request.Email)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent successfully", response)
}

func (h *AuthHandler) VerifyMobileOTP(c *gin.Context) {
	var request validators.VerifyMobileOTPRequest
	if !bindJSON(c, &request, validators.ValidateVerifyMobileOTP) {
		return
	}

	response, err := h.authService.VerifyMobileOTP(c.Request.Context(), request.Mobile, request.OTP)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

func (h *AuthHandler) VerifyEmailOTP(c *gin.Context) {
	var request validators.VerifyEmailOTPRequest
	if !bindJSON(c, &request, validators.ValidateVerifyEmailOTP) {
		return
	}

	response, err := h.authService.VerifyEmailOTP(c.Request.Context(), request.Email, request.OTP)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

// Me returns the caller's profile together with the admin flag.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	response, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Logged out successfully", nil)
}
