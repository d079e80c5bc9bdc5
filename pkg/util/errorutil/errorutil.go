package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to API callers and batch results.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeIneligibleTarget    = "INELIGIBLE_TARGET"
	CodeSameOwner           = "SAME_OWNER"
	CodeConflict            = "CONFLICT"
	CodeTerminalItem        = "TERMINAL_ITEM"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternal            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewIneligibleTarget(message string, details map[string]any) error {
	return NewDomainError(CodeIneligibleTarget, message, http.StatusUnprocessableEntity, details)
}

func NewSameOwner(details map[string]any) error {
	return NewDomainError(CodeSameOwner, "work item already owned by target counselor", http.StatusConflict, details)
}

func NewTerminalItem(details map[string]any) error {
	return NewDomainError(CodeTerminalItem, "work item is closed and cannot change owner", http.StatusConflict, details)
}

func NewUpstreamUnavailable(err error) error {
	return &DomainError{
		Code:       CodeUpstreamUnavailable,
		Message:    "counselor directory or work item store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the domain code for err, INTERNAL_ERROR for foreign errors.
func CodeOf(err error) string {
	if de := ToDomainError(err); de != nil {
		return de.Code
	}
	return ""
}

func MapError(err error) error {
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusServiceUnavailable:
		return CodeUpstreamUnavailable
	default:
		if status >= 500 {
			return CodeInternal
		}
		return "REQUEST_FAILED"
	}
}
