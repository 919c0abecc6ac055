package fetch

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading immutable remote objects.
type Store interface {
	// Open opens an object for reading.
	Open(ctx context.Context, name string) (Object, error)
}

// Object is a read-only handle to one stored object. Ranged reads let
// the fetcher download large databases in parallel chunks.
type Object interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the object in bytes.
	Size() int64
}
