package record

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from record store operations.
//
// These are business logic errors (record not found, bad argument) as
// opposed to infrastructure errors, which backends wrap and return as-is.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the record the error relates to (if applicable)
	ID *ID
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s: record %d", e.Message, *e.ID)
	}
	return e.Message
}

// ErrorCode represents the category of a store error.
type ErrorCode int

const (
	// ErrNotFound indicates no record exists at the requested ID
	ErrNotFound ErrorCode = iota

	// ErrInvalidArgument indicates invalid parameters were provided,
	// e.g. a record whose ID does not match its key
	ErrInvalidArgument

	// ErrIOError indicates the backend failed to read or write
	ErrIOError

	// ErrCorrupted indicates persisted data could not be decoded
	ErrCorrupted
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrIOError:
		return "IOError"
	case ErrCorrupted:
		return "Corrupted"
	default:
		return "Unknown"
	}
}

// NewNotFoundError returns the ErrNotFound StoreError for id.
func NewNotFoundError(id ID) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "record not found", ID: &id}
}

// NewKeyMismatchError reports a Put whose record ID differs from its key.
func NewKeyMismatchError(key ID, got ID) *StoreError {
	return &StoreError{
		Code:    ErrInvalidArgument,
		Message: fmt.Sprintf("record id %d does not match key", got),
		ID:      &key,
	}
}

// IsNotFound reports whether err (or anything it wraps) is an ErrNotFound
// StoreError.
func IsNotFound(err error) bool {
	return HasCode(err, ErrNotFound)
}

// HasCode reports whether err (or anything it wraps) is a StoreError with
// the given code.
func HasCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}
