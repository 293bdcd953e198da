package utils

import "time"

// Application constants
const (
	AppName = "OurSkillLab"

	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	JWTAccessTokenTTL = 7 * 24 * time.Hour

	MaxImageUploadSize = 5 << 20
	ImageUploadFolder  = "courses"
)

// Response status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
	ErrInvalidID        = "invalid id"
	ErrInvalidRequest   = "invalid request body"
	ErrTooManyRequests  = "too many requests"
)

// Context keys set by the HTTP middleware
const (
	ContextKeyPrincipal = "principal"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)

// Cache key prefixes
const (
	CacheKeyRevokedToken = "revoked:"
	CacheKeyCourse       = "course:"
	CacheKeyCourseList   = "courses:all"
	CacheKeyActivePlans  = "plans:active"
)

var AllowedImageTypes = []string{"jpg", "jpeg", "png"}
