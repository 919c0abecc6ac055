package manifoldscan

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPath is returned when a table function is bound without a
	// database location.
	ErrMissingPath = errors.New("database location must not be empty")
)

// InternalError reports a panic recovered at the table function boundary.
// The query that triggered it fails; the process and other scans keep
// running.
//
// The recovered panic value can be accessed via errors.Unwrap.
type InternalError struct {
	Op    string
	cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %v", e.Op, e.cause)
}

func (e *InternalError) Unwrap() error { return e.cause }
