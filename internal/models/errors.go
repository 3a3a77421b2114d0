package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents validation errors (400)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeProvider represents upstream model errors (502)
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeTimeout represents upstream timeouts (504)
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeCircuitBreaker represents a skipped candidate whose breaker is open (503)
	ErrorTypeCircuitBreaker ErrorType = "circuit_breaker"
	// ErrorTypeConfiguration represents missing or invalid server configuration (500)
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeInternal represents internal server errors (500)
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes surfaced to callers and used as metric attributes.
const (
	CodeMissingPrompt      = "MISSING_PROMPT"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUpstreamModelError = "UPSTREAM_MODEL_ERROR"
	CodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	CodeAllModelsFailed    = "ALL_MODELS_FAILED"
	CodeCircuitBreakerOpen = "CIRCUIT_BREAKER_OPEN"
	CodeMissingCredential  = "MISSING_CREDENTIAL"
	CodeInternal           = "INTERNAL_ERROR"
)

// MissingPromptMessage is the client-facing message for an absent prompt.
const MissingPromptMessage = "Prompt is required"

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitzero"`
	Model      string    `json:"model,omitzero"`
	StatusCode int       `json:"-"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// Details returns the most specific human-readable message available,
// preferring the innermost cause.
func (e *AppError) Details() string {
	if e.Cause != nil {
		var inner *AppError
		if errors.As(e.Cause, &inner) {
			return inner.Details()
		}
		return e.Cause.Error()
	}
	return e.Message
}

// GetStatusCode returns the HTTP status code for the error
func (e *AppError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeProvider:
		return http.StatusBadGateway
	case ErrorTypeCircuitBreaker:
		return http.StatusServiceUnavailable
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusBadRequest,
		Retryable:  false,
		Cause:      cause,
	}
}

// NewMissingPromptError is returned before any upstream call when the prompt is absent or empty.
func NewMissingPromptError() *AppError {
	return NewValidationError(CodeMissingPrompt, MissingPromptMessage, nil)
}

// NewUpstreamModelError wraps a failure from a single model invocation.
// upstreamStatus is the HTTP status reported by the provider SDK, or 0 when unknown.
func NewUpstreamModelError(provider, model string, upstreamStatus int, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProvider,
		Message:    fmt.Sprintf("provider %s model %s failed", provider, model),
		Code:       CodeUpstreamModelError,
		Model:      model,
		StatusCode: upstreamStatus,
		Retryable:  true,
		Cause:      cause,
	}
}

// NewTimeoutError creates a timeout error for a single model attempt
func NewTimeoutError(model string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("model %s timed out", model),
		Code:       CodeUpstreamTimeout,
		Model:      model,
		StatusCode: http.StatusGatewayTimeout,
		Retryable:  true,
		Cause:      cause,
	}
}

// NewCircuitBreakerError creates a circuit breaker error
func NewCircuitBreakerError(model string) *AppError {
	return &AppError{
		Type:       ErrorTypeCircuitBreaker,
		Message:    fmt.Sprintf("model %s is currently unavailable (circuit breaker open)", model),
		Code:       CodeCircuitBreakerOpen,
		Model:      model,
		StatusCode: http.StatusServiceUnavailable,
		Retryable:  true,
	}
}

// NewAllModelsFailedError aggregates candidate exhaustion. The last underlying
// failure is preserved as the cause. The status is the one reported by the
// upstream provider for that failure when it is an HTTP error status; local
// timeouts and skipped candidates report 500.
func NewAllModelsFailedError(attempts int, last error) *AppError {
	status := http.StatusInternalServerError
	var lastApp *AppError
	if errors.As(last, &lastApp) && lastApp.Code == CodeUpstreamModelError &&
		lastApp.StatusCode >= 400 && lastApp.StatusCode <= 599 {
		status = lastApp.StatusCode
	}
	return &AppError{
		Type:       ErrorTypeProvider,
		Message:    fmt.Sprintf("all %d candidate models failed", attempts),
		Code:       CodeAllModelsFailed,
		StatusCode: status,
		Retryable:  true,
		Cause:      last,
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Code:       CodeInternal,
		StatusCode: http.StatusInternalServerError,
		Retryable:  false,
		Cause:      cause,
	}
}

// AsAppError converts any error to an AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("internal server error", err)
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
