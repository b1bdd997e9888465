package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets an id that does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmptySelection is returned when an outfit is composed with no items.
var ErrEmptySelection = errors.New("outfit must contain at least one item")

// ValidationError reports a missing or invalid required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the underlying database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
