package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrMissingIdentity: the extractor produced a patient section without a
	// name, so identity cannot be resolved. Record-level, never request-fatal.
	ErrMissingIdentity = errors.New("missing patient identity")

	// ErrDuplicateCase: a case with the same (hospital, report_date) already
	// exists. Record-level; blocks re-ingesting the same physical report.
	ErrDuplicateCase = errors.New("duplicate case")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTP error helpers
func BadRequestError(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

func NotFoundError(message string) error {
	return echo.NewHTTPError(http.StatusNotFound, message)
}

func InternalError(message string) error {
	return echo.NewHTTPError(http.StatusInternalServerError, message)
}

func BadRequestErrorf(format string, args ...interface{}) error {
	return BadRequestError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
