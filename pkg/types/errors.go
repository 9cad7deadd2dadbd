package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeAuthentication     ErrorType = "authentication"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeConflict           ErrorType = "conflict"
	ErrorTypeServer             ErrorType = "server"
	ErrorTypeNetworkUnavailable ErrorType = "network_unavailable"
	ErrorTypeRateLimit          ErrorType = "rate_limit"
)

// PortalError represents a structured error in the portal
type PortalError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *PortalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *PortalError {
	return &PortalError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Details: details,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(message string) *PortalError {
	return &PortalError{
		Type:    ErrorTypeAuthentication,
		Code:    ErrCodeAuthenticationFailed,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *PortalError {
	return &PortalError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string, details map[string]interface{}) *PortalError {
	return &PortalError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Status:  http.StatusConflict,
		Details: details,
	}
}

// NewServerError creates a new server error
func NewServerError(status int, message string, cause error) *PortalError {
	return &PortalError{
		Type:    ErrorTypeServer,
		Code:    ErrCodeServerError,
		Message: message,
		Status:  status,
		Cause:   cause,
	}
}

// NewNetworkUnavailableError creates a new network unavailable error
func NewNetworkUnavailableError(cause error) *PortalError {
	return &PortalError{
		Type:    ErrorTypeNetworkUnavailable,
		Code:    ErrCodeNetworkUnavailable,
		Message: "We're having trouble connecting right now. Please check your internet connection and try again.",
		Cause:   cause,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string) *PortalError {
	return &PortalError{
		Type:    ErrorTypeRateLimit,
		Code:    ErrCodeRateLimitExceeded,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// IsType reports whether err carries a PortalError of the given type
func IsType(err error, t ErrorType) bool {
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// UserMessage maps any error to the single banner string shown to the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PortalError
	if !errors.As(err, &pe) {
		return "Something went wrong. Please try again."
	}
	if pe.Message != "" {
		return pe.Message
	}
	switch pe.Type {
	case ErrorTypeAuthentication:
		return "We couldn't find an account with those details. Please check your information and try again."
	case ErrorTypeNotFound:
		return "Account not found. Please check your credentials or register first."
	case ErrorTypeNetworkUnavailable:
		return "We're having trouble connecting right now. Please check your internet connection and try again."
	case ErrorTypeServer:
		return "Server error. Please try again later."
	case ErrorTypeConflict:
		return "An account with this email already exists. Please use a different email or try logging in."
	}
	return "Please check your information and try again."
}

// Common error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeSlotOverlap          = "SLOT_OVERLAP"
	ErrCodeServerError          = "SERVER_ERROR"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeNetworkUnavailable   = "NETWORK_UNAVAILABLE"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked        = "ACCOUNT_LOCKED"
	ErrCodeForbidden            = "FORBIDDEN"
)
