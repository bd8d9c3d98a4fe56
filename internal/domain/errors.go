package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable application error codes. Every failure that reaches the HTTP
// boundary carries exactly one of these; layers above the point of
// classification never rewrite them.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeDuplicateKey        = "DUPLICATE_KEY"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeForeignKey          = "FOREIGN_KEY_CONSTRAINT"
	CodeNotFound            = "NOT_FOUND"
	CodeOutOfStock          = "OUT_OF_STOCK"
	CodeUserAlreadyBorrowed = "USER_ALREADY_BORROWED"
	CodeValueTooLong        = "VALUE_TOO_LONG"
	CodeNumberOutOfRange    = "NUMBER_OUT_OF_RANGE"
	CodeSchemaMismatch      = "SCHEMA_MISMATCH"
	CodeDBInit              = "DB_INIT_ERROR"
	CodeDBUnknown           = "DB_UNKNOWN_ERROR"
	CodeDBPanic             = "DB_PANIC"
	CodeHTTPRequest         = "HTTP_REQUEST_ERROR"
	CodeUnknown             = "UNKNOWN_ERROR"
)

// AppError is the single error representation all failures are normalized
// into before reaching the caller. Code and Status are fixed at construction.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// NewAppError creates an AppError with an explicit code and status.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithMeta attaches structured context and returns the error for chaining.
func (e *AppError) WithMeta(meta map[string]any) *AppError {
	e.Meta = meta
	return e
}

// Validation builds a 422 VALIDATION_ERROR.
func Validation(message string) *AppError {
	return NewAppError(CodeValidation, message, http.StatusUnprocessableEntity)
}

// NotFound builds a 404 NOT_FOUND.
func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound)
}

// Conflict builds a 409 error with a caller-chosen code, e.g. OUT_OF_STOCK.
func Conflict(code, message string) *AppError {
	return NewAppError(code, message, http.StatusConflict)
}

// Internal builds a 500 error with a caller-chosen code.
func Internal(code, message string) *AppError {
	return NewAppError(code, message, http.StatusInternalServerError)
}

// AsAppError unwraps err into an *AppError if one is anywhere in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPError reports a failed outbound request to a third-party HTTP
// dependency. The storage error mapper turns it into HTTP_REQUEST_ERROR with
// the upstream status, or 502 when no response was received.
type HTTPError struct {
	Method  string
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
