// Package bolt implements the storage contract on top of bbolt. Records
// live in the "nodes" and "edges" buckets keyed by big-endian uint64 id,
// which gives cursors ascending id order. Secondary label and edge-type
// indexes are kept as roaring bitmaps in separate buckets.
package bolt

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hupe1980/manifoldscan/storage"
)

var (
	idxLabels    = []byte("idx_labels")
	idxEdgeTypes = []byte("idx_edge_types")
)

// Engine is a bbolt-backed Manifold database. It satisfies
// storage.Engine and additionally exposes the write and stats surface
// used by seeding, export, and tests.
type Engine struct {
	db   *bbolt.DB
	path string
}

var _ storage.Engine = (*Engine)(nil)

// Open opens the database file at path, creating it if absent. A fresh
// file has no collections; scans over it see the base schema and zero
// rows until a writer creates the buckets. The open fails if another
// process holds the file lock for longer than the timeout.
func Open(path string) (*Engine, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing database file at path for reading.
// Unlike Open it never creates the file, so a bad location surfaces as
// an open failure instead of an empty database. Read-only engines take
// a shared file lock and may coexist within and across processes.
func OpenReadOnly(path string) (*Engine, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*Engine, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout:  5 * time.Second,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %q: %w", path, err)
	}
	return &Engine{db: db, path: path}, nil
}

// Path returns the file path the engine was opened from.
func (e *Engine) Path() string { return e.path }

// Close releases the underlying bbolt database.
func (e *Engine) Close() error { return e.db.Close() }

// BeginRead starts a read-only transaction pinned to the current
// snapshot of the file.
func (e *Engine) BeginRead() (storage.ReadTx, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	return &readTx{tx: tx}, nil
}

type readTx struct {
	tx *bbolt.Tx
}

func (t *readTx) Cursor(collection string) (storage.Cursor, error) {
	b := t.tx.Bucket([]byte(collection))
	if b == nil {
		return nil, storage.ErrCollectionNotFound
	}
	// *bbolt.Cursor satisfies storage.Cursor directly.
	return b.Cursor(), nil
}

func (t *readTx) Close() error { return t.tx.Rollback() }

// Key returns the storage key for a record id: 8 bytes, big-endian, so
// byte order equals numeric order.
func Key(id uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}

// KeyID decodes a storage key produced by Key.
func KeyID(key []byte) uint64 {
	if len(key) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key)
}
