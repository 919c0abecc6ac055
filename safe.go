package manifoldscan

import (
	"fmt"
	"runtime/debug"
)

// guard converts a panic in the surrounding frame into an error at the
// host boundary. The host must never see the process die: it treats the
// returned error as fatal to the query alone. The stack trace goes to the
// logger, not into the error.
func guard(op string, logger *Logger, err *error) {
	if r := recover(); r != nil {
		logger.Error("recovered panic",
			"op", op,
			"panic", r,
			"stack", string(debug.Stack()),
		)
		cause, ok := r.(error)
		if !ok {
			cause = fmt.Errorf("panic: %v", r)
		}
		*err = &InternalError{Op: op, cause: cause}
	}
}
