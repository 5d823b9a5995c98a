package storage

import "fmt"

// Error is returned when a transaction or a (de)serialization step fails.
// It is fatal to the enclosing call and never retried.
type Error struct {
	// Op names the failing operation, e.g. "save memory".
	Op string

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "storage: " + e.Op
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err wrapped in an *Error for op, or nil when err is nil.
// Errors that are already *Error are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return &Error{Op: op, Err: err}
}
