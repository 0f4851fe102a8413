// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input validation errors. These are reported to the caller and never retried.
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptyText      = fmt.Errorf("%w: text or document content is required", ErrInvalidInput)
	ErrNoTransactions = fmt.Errorf("%w: no historical transactions supplied", ErrInvalidInput)
	ErrInvalidRating  = fmt.Errorf("%w: confidence rating must be between 1 and 10", ErrInvalidInput)

	// Learning store errors.
	ErrLockContention = errors.New("learning store is busy")

	// Catalog errors.
	ErrCatalogLoad = errors.New("failed to load merchant catalog")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsInputValidation reports whether err is a caller error that must not be retried.
func IsInputValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if IsInputValidation(err) {
		return false
	}

	if errors.Is(err, ErrLockContention) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
