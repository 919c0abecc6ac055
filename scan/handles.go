package scan

import (
	"fmt"
	"sync"

	"github.com/hupe1980/manifoldscan/storage"
)

// OpenFunc opens the storage engine behind a database path.
type OpenFunc func(path string) (storage.Engine, error)

// OpenError reports that a database path could not be opened at bind
// time. It is fatal to the scan that triggered it.
//
// The underlying error can be accessed via errors.Unwrap.
type OpenError struct {
	Path  string
	cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open database %q: %v", e.Path, e.cause)
}

func (e *OpenError) Unwrap() error { return e.cause }

// NewOpenError wraps a failure to make the database at path available.
// Acquire produces these itself; the constructor exists for callers that
// fail before reaching the cache, such as remote materialization.
func NewOpenError(path string, cause error) *OpenError {
	return &OpenError{Path: path, cause: cause}
}

// Handles is the process-wide handle cache: one shared engine per
// database path, opened on first acquire and never closed. The host's
// invocation model offers no point to close a handle between scans, so
// entries intentionally live for the rest of the process.
type Handles struct {
	open OpenFunc

	mu      sync.Mutex
	engines map[string]storage.Engine
}

// NewHandles returns an empty cache that opens engines with open.
func NewHandles(open OpenFunc) *Handles {
	return &Handles{
		open:    open,
		engines: make(map[string]storage.Engine),
	}
}

// Acquire returns the shared engine for the path, opening it if this is
// the first acquire. Opening happens under the cache lock, so concurrent
// first acquires of one path still produce a single handle; opens are
// rare relative to scans. A failed open returns an *OpenError and leaves
// no cache entry behind.
func (h *Handles) Acquire(path string) (storage.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if eng, ok := h.engines[path]; ok {
		return eng, nil
	}

	eng, err := h.open(path)
	if err != nil {
		return nil, &OpenError{Path: path, cause: err}
	}
	h.engines[path] = eng
	return eng, nil
}

// Len returns the number of cached handles.
func (h *Handles) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}
