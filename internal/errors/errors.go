// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidBounds    = errors.New("invalid price bounds")
	ErrInvalidSpot      = errors.New("invalid spot price")
	ErrUnknownSymbol    = errors.New("unknown symbol")
	ErrUnknownState     = errors.New("unknown state")
	ErrEmptyCatalog     = errors.New("catalog has no districts")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrEngineClosed     = errors.New("engine closed")
	ErrHistoryDisabled  = errors.New("history recording disabled")
	ErrDataNotFound     = errors.New("data not found")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ValidationError represents a validation error. Sentinel, when set, is
// returned by Unwrap so callers can match the error class with errors.Is.
type ValidationError struct {
	Field    string
	Value    interface{}
	Message  string
	Sentinel error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Sentinel
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewValidationErrorFor creates a ValidationError that unwraps to sentinel.
func NewValidationErrorFor(sentinel error, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:    field,
		Value:    value,
		Message:  message,
		Sentinel: sentinel,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
