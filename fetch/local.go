package fetch

import (
	"context"
	"os"
	"path/filepath"
)

// LocalStore implements Store using the local file system. It exists for
// staging layouts that mirror remote ones and for tests.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Open opens an object for reading. A missing file satisfies
// errors.Is(err, ErrNotFound).
func (s *LocalStore) Open(_ context.Context, name string) (Object, error) {
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &localObject{f: f, size: info.Size()}, nil
}

type localObject struct {
	f    *os.File
	size int64
}

func (o *localObject) ReadAt(p []byte, off int64) (int, error) { return o.f.ReadAt(p, off) }

func (o *localObject) Close() error { return o.f.Close() }

func (o *localObject) Size() int64 { return o.size }
