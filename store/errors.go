package store

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is() for matching
var (
	// ErrInvalidFilter is returned when a store cannot interpret the filter it was given
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidProjection is returned when a projection mixes inclusion and exclusion
	ErrInvalidProjection = errors.New("invalid projection")

	// ErrInvalidSort is returned when a sort specification cannot be parsed
	ErrInvalidSort = errors.New("invalid sort")

	// ErrInvalidPopulate is returned when a populate specification is incomplete
	ErrInvalidPopulate = errors.New("invalid populate")

	// ErrFieldNotAllowed is returned when a field is not in the allowed fields list
	ErrFieldNotAllowed = errors.New("field not allowed")

	// ErrInvalidDestination is returned when the destination parameter is not a pointer to a slice
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrUnknownCollection is returned when a populate collection is not known to the store
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidRange is returned when FindOptions carry a negative skip or limit
	ErrInvalidRange = errors.New("invalid skip or limit")
)

// FieldError wraps an error with field name information
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field '%s': %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError creates a new FieldError
func NewFieldError(field string, err error) error {
	return &FieldError{
		Field: field,
		Err:   err,
	}
}

// FieldNotAllowedError creates an error for fields not in the allowed list
func FieldNotAllowedError(field string) error {
	return NewFieldError(field, ErrFieldNotAllowed)
}

// OperationError wraps an error returned by the underlying database driver
type OperationError struct {
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError, returning nil for a nil err
func NewOperationError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{
		Operation: operation,
		Err:       err,
	}
}
