package query

import "fmt"

// Error reports a structurally invalid query. It is returned before any
// storage or index access.
type Error struct {
	// Field is the dotted path of the offending field, e.g.
	// "traverse.direction". Empty for whole-document problems.
	Field string

	Msg string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "invalid query: " + e.Msg
	}
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Msg: fmt.Sprintf(format, args...)}
}
