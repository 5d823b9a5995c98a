package client

import "fmt"

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("memgraph API returned %d: %s", e.StatusCode, e.Message)
}
