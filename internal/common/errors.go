// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors. A NotFound is returned both when an id does not
// exist and when it belongs to another team; callers cannot tell the two
// apart.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("missing dependency")
)

// ValidationError reports malformed input: a missing required field, an
// unknown enum value, or an unparsable amount pattern.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError wraps err as a ValidationError.
func NewValidationError(err error) error {
	return &ValidationError{Err: err}
}

// ConflictError reports an operation blocked by referencing data, such as
// deleting a category still used by an active transaction.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError creates a ConflictError with a formatted message.
func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// DependencyError reports a write that names an entity which does not exist,
// such as a transaction referencing an unknown category.
type DependencyError struct {
	Message string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependency: %s", e.Message)
}

func (e *DependencyError) Unwrap() error { return ErrDependency }

// NewDependencyError creates a DependencyError with a formatted message.
func NewDependencyError(format string, args ...any) error {
	return &DependencyError{Message: fmt.Sprintf(format, args...)}
}
