package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes rendered to clients.
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeMissingOrInvalidToken   = "MISSING_OR_INVALID_TOKEN"
	CodeInvalidOrExpiredToken   = "INVALID_OR_EXPIRED_TOKEN"
	CodeForbiddenResource       = "FORBIDDEN_RESOURCE"
	CodeConflict                = "CONFLICT"
	CodeCacheUnavailable        = "CACHE_UNAVAILABLE"
	CodeStoreProvisioningFailed = "STORE_PROVISIONING_FAILED"
	CodeInternal                = "INTERNAL_ERROR"
	CodeRequestFailed           = "REQUEST_FAILED"
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

// NewMissingOrInvalidToken reports an absent or malformed bearer header.
func NewMissingOrInvalidToken() error {
	return NewDomainError(CodeMissingOrInvalidToken, "missing or invalid token", http.StatusUnauthorized, nil)
}

// NewInvalidOrExpiredToken reports a token that failed verification or carries the wrong purpose.
func NewInvalidOrExpiredToken(err error) error {
	return &DomainError{
		Code:       CodeInvalidOrExpiredToken,
		Message:    "invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// NewForbiddenResource reports an authenticated caller lacking a required role.
func NewForbiddenResource(message string) error {
	return NewDomainError(CodeForbiddenResource, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewCacheUnavailable wraps a connectivity failure against the shared store.
func NewCacheUnavailable(op string, err error) error {
	return &DomainError{
		Code:       CodeCacheUnavailable,
		Message:    op + ": cache unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewStoreProvisioningError marks a startup failure of a backing store.
func NewStoreProvisioningError(store string, err error) error {
	return &DomainError{
		Code:       CodeStoreProvisioningFailed,
		Message:    store + " provisioning failed",
		HTTPStatus: http.StatusInternalServerError,
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

// IsCode reports whether err carries a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
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
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// FromStatus converts a bare HTTP status, such as a router 404 or 405, into a DomainError.
func FromStatus(status int, message string) *DomainError {
	code := CodeRequestFailed
	switch {
	case status == http.StatusBadRequest:
		code = CodeValidationFailed
	case status == http.StatusUnauthorized:
		code = CodeUnauthorized
	case status == http.StatusForbidden:
		code = CodeForbiddenResource
	case status == http.StatusNotFound:
		code = CodeNotFound
	case status == http.StatusConflict:
		code = CodeConflict
	case status >= http.StatusInternalServerError:
		code = CodeInternal
	}
	return NewDomainError(code, message, status, nil)
}

func MapError(err error) error {
	return ToDomainError(err)
}
