package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to API clients.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is an application error carrying an HTTP status and a stable code.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code so callers can write errors.Is(err, apperror.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an existing error
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Sentinels for errors.Is comparisons. They carry no message.
var (
	ErrNotFound          = &AppError{Code: CodeNotFound}
	ErrValidation        = &AppError{Code: CodeValidation}
	ErrConflict          = &AppError{Code: CodeConflict}
	ErrInvalidTransition = &AppError{Code: CodeInvalidTransition}
	ErrInsufficientStock = &AppError{Code: CodeInsufficientStock}
)

// NotFound creates a not found error for a resource and its id.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Validation creates a 400 error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// InvalidTransition reports a rejected state machine move.
func InvalidTransition(entity, from, to string) *AppError {
	return New(CodeInvalidTransition,
		fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		http.StatusConflict).
		WithDetail("from", from).
		WithDetail("to", to)
}

// InsufficientStock reports a stock decrement that would go below zero.
func InsufficientStock(code string, available, requested int64) *AppError {
	return New(CodeInsufficientStock,
		fmt.Sprintf("material %s has %d on hand, %d requested", code, available, requested),
		http.StatusConflict).
		WithDetail("material_code", code)
}

// Internal creates a 500 error.
func Internal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// As extracts an AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts any error to an AppError, defaulting to internal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal("").Wrap(err)
}
