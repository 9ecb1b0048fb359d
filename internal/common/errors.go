// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrInvalidInput indicates a malformed or out-of-range field. Inputs are
	// rejected before any side effect takes place.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates an unknown product, source, rule, or match id.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a confirm or remove attempt without a reviewer identity.
	ErrUnauthorized = errors.New("reviewer identity required")
	// ErrConflict indicates a uniqueness violation at the store layer.
	ErrConflict = errors.New("conflicting active match")
	// ErrSourceFetch indicates a per-source listing fetch failure. It never
	// fails the overall candidate request.
	ErrSourceFetch = errors.New("source fetch failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the operator.
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
