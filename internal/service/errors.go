package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for a wrong password and for an unknown user alike.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountInactive is returned when the password matched a disabled account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidParameter is returned for out-of-range numeric input.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ValidationError reports a problem with a single form field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
