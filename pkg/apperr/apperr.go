package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Error standardizes application errors so handlers can map them to HTTP
// statuses without inspecting storage-level error values.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) error {
	return &Error{Code: "VALIDATION_FAILED", Message: message, Status: http.StatusBadRequest}
}

func Unauthorized(message string) error {
	return &Error{Code: "UNAUTHORIZED", Message: message, Status: http.StatusUnauthorized}
}

func Forbidden(message string) error {
	return &Error{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden}
}

func NotFound(resource string) error {
	return &Error{Code: "NOT_FOUND", Message: resource + " not found", Status: http.StatusNotFound}
}

func Conflict(message string) error {
	return &Error{Code: "CONFLICT", Message: message, Status: http.StatusConflict}
}

func Internal(err error) error {
	return &Error{Code: "INTERNAL_ERROR", Message: "Database error", Status: http.StatusInternalServerError, Err: err}
}

// From converts an arbitrary error into an *Error. Storage "record not found"
// errors become 404s; anything unrecognized becomes a 500 with a generic
// client-side message (the wrapped cause stays server-side for logging).
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := NotFound("Resource").(*Error)
		e.Err = err
		return e
	}
	return Internal(err).(*Error)
}

// Status returns the HTTP status for an error, 500 for unclassified ones.
func Status(err error) int {
	return From(err).Status
}

// IsNotFound reports whether err maps to a 404.
func IsNotFound(err error) bool {
	return err != nil && From(err).Status == http.StatusNotFound
}
