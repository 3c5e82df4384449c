package common

import (
	"fmt"

	"github.com/rotisserie/eris"
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
	ErrNotFound     = eris.New("resource not found")
	ErrInvalidInput = eris.New("invalid input")
	ErrDatabase     = eris.New("database error")
	ErrValidation   = eris.New("validation failed")
)

// Error constructors
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
	return eris.Wrap(err, message)
}

// DatabaseError tags err as a storage failure for op.
func DatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewAppError("DB_ERROR", fmt.Sprintf("%s: %v", op, err), ErrDatabase)
}
