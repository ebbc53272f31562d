package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a lookup by id that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the requested change clashes with current state
	// (duplicate key, device already loaned, active loan on delete).
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates a malformed or incomplete payload.
	ErrValidation = errors.New("validation failed")
)

// Validationf builds an ErrValidation carrying a human-readable message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf builds an ErrConflict carrying a human-readable message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound naming the missing resource.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
