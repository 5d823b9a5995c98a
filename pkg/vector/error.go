package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the dimensionality of the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector is returned by backends that cannot index or search a
	// zero-magnitude vector.
	ErrZeroVector = errors.New("zero-magnitude vector")

	// ErrEmptyVector is returned when a vector has no components.
	ErrEmptyVector = errors.New("empty vector")
)

// Error wraps a failure inside an index backend.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vector index: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func mismatch(want, got int) error {
	return fmt.Errorf("%w: index has %d dimensions, got %d", ErrDimensionMismatch, want, got)
}

// CheckDimensions returns an *Error wrapping ErrDimensionMismatch when got
// differs from want. A want of zero accepts any non-empty vector.
func CheckDimensions(op string, want int, v []float32) error {
	if len(v) == 0 {
		return &Error{Op: op, Err: ErrEmptyVector}
	}
	if want != 0 && len(v) != want {
		return &Error{Op: op, Err: mismatch(want, len(v))}
	}
	return nil
}
