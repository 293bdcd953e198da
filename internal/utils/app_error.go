package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an expected failure so the HTTP layer can pick a status.
type ErrorKind string

const (
	KindNotAuthenticated ErrorKind = "NOT_AUTHENTICATED"
	KindNotAuthorized    ErrorKind = "NOT_AUTHORIZED"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindInvalid          ErrorKind = "INVALID"
	KindConflict         ErrorKind = "CONFLICT"
	KindUpstreamFailure  ErrorKind = "UPSTREAM_FAILURE"
	KindInternal         ErrorKind = "INTERNAL"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	// Details carries per-field messages for INVALID errors.
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotAuthenticated(message string) *AppError {
	return &AppError{Kind: KindNotAuthenticated, Message: message}
}

func NotAuthorized(message string) *AppError {
	return &AppError{Kind: KindNotAuthorized, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Invalid(message string) *AppError {
	return &AppError{Kind: KindInvalid, Message: message}
}

func InvalidWithDetails(message string, details map[string]string) *AppError {
	return &AppError{Kind: KindInvalid, Message: message, Details: details}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func Upstream(message string, err error) *AppError {
	return &AppError{Kind: KindUpstreamFailure, Message: message, Err: err}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindNotAuthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
