package table

import (
	"errors"
	"fmt"

	"github.com/standinlabs/standin/internal/entity"
)

// StoreError represents a failure detected by the backing store.
//
// Store errors include:
//   - Configuration: no usable key strategy for the entity type
//   - Duplicate key: an Add whose key already exists in the committed table
//   - Missing row: an Update targeting a key absent from the committed table
//   - Concurrency: a Remove targeting a key absent from the committed table
//
// StoreError includes structured fields for diagnostics.
type StoreError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed ("add", "update", "remove", "seed", "new").
	Op string

	// Table is the entity type name.
	Table string

	// Key identifies the affected row, when one was derived.
	Key entity.Key

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeConfig indicates no usable key strategy was found for the
	// entity type. Detected once, at store construction, fatal to that store.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeDuplicateKey indicates an Add whose derived key already exists
	// in the committed table.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeMissingRow indicates an Update targeting a key that was never
	// committed or has been removed.
	ErrCodeMissingRow ErrorCode = "MISSING_ROW"

	// ErrCodeConcurrency indicates a Remove targeting a key absent from the
	// committed table - the row the caller thinks exists is already gone.
	ErrCodeConcurrency ErrorCode = "CONCURRENCY_VIOLATION"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: %s (table=%s, key=%s)", e.Code, e.Op, e.Message, e.Table, e.Key)
	}
	return fmt.Sprintf("%s: %s: %s (table=%s)", e.Code, e.Op, e.Message, e.Table)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeConfig)
}

// IsDuplicateKey returns true if the error is a duplicate-key error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateKey(err error) bool {
	return hasCode(err, ErrCodeDuplicateKey)
}

// IsMissingRow returns true if the error is a missing-row error.
// Uses errors.As to handle wrapped errors.
func IsMissingRow(err error) bool {
	return hasCode(err, ErrCodeMissingRow)
}

// IsConcurrencyViolation returns true if the error is a concurrency error.
// Uses errors.As to handle wrapped errors.
func IsConcurrencyViolation(err error) bool {
	return hasCode(err, ErrCodeConcurrency)
}

func hasCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newConfigError(table string, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeConfig,
		Op:      "new",
		Table:   table,
		Message: "no usable key strategy for entity type",
		Err:     err,
	}
}

func newDuplicateKeyError(op, table string, k entity.Key) *StoreError {
	return &StoreError{
		Code:    ErrCodeDuplicateKey,
		Op:      op,
		Table:   table,
		Key:     k,
		Message: "key already committed",
	}
}

func newMissingRowError(op, table string, k entity.Key) *StoreError {
	return &StoreError{
		Code:    ErrCodeMissingRow,
		Op:      op,
		Table:   table,
		Key:     k,
		Message: "no committed row for key",
	}
}

func newConcurrencyError(op, table string, k entity.Key) *StoreError {
	return &StoreError{
		Code:    ErrCodeConcurrency,
		Op:      op,
		Table:   table,
		Key:     k,
		Message: "row already removed or never committed",
	}
}
