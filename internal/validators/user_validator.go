package validators

import (
	"strings"

	"ourskilllab/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Mobile   string `json:"mobile" validate:"required,phone_number"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type MobileOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,phone_number"`
}

type EmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyMobileOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,phone_number"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ValidateRegister normalizes the identifiers in place, then validates.
func ValidateRegister(req *RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Mobile != "" {
		req.Mobile = utils.NormalizePhone(req.Mobile)
	}
	return ValidateStruct(req).AsAppError()
}

func ValidateMobileOTP(req *MobileOTPRequest) error {
	if req.Mobile != "" {
		req.Mobile = utils.NormalizePhone(req.Mobile)
	}
	return ValidateStruct(req).AsAppError()
}

func ValidateEmailOTP(req *EmailOTPRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	return ValidateStruct(req).AsAppError()
}

func ValidateVerifyMobileOTP(req *VerifyMobileOTPRequest) error {
	if req.Mobile != "" {
		req.Mobile = utils.NormalizePhone(req.Mobile)
	}
	req.OTP = strings.TrimSpace(req.OTP)
	return ValidateStruct(req).AsAppError()
}

func ValidateVerifyEmailOTP(req *VerifyEmailOTPRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	return ValidateStruct(req).AsAppError()
}
