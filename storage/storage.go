// Package storage defines the contract the scan layer consumes from a
// Manifold storage engine: an open handle, short-lived read transactions,
// and ordered cursors over named collections.
//
// Implementations must provide ordered iteration by raw key and a Seek
// that positions the cursor at the first key greater than or equal to the
// target. The bolt subpackage provides the bbolt-backed implementation.
package storage

import "errors"

// Collection names of the two record kinds in a Manifold database.
const (
	CollectionNodes = "nodes"
	CollectionEdges = "edges"
)

// ErrCollectionNotFound is returned by ReadTx.Cursor when the named
// collection has not been created in the database yet. Callers treat it
// as an empty collection, not a failure.
var ErrCollectionNotFound = errors.New("collection not found")

// Engine is an open database handle. Engines are safe for concurrent use
// and are typically shared process-wide through a handle cache; Close is
// only called by code that owns the handle outright (tests, tooling).
type Engine interface {
	// BeginRead starts a read-only transaction. Transactions are
	// short-lived: one discovery sample or one batch fetch each.
	BeginRead() (ReadTx, error)

	// Path returns the path the engine was opened from.
	Path() string

	// Close releases the underlying store.
	Close() error
}

// ReadTx is a read-only transaction over one database snapshot.
type ReadTx interface {
	// Cursor opens an ordered cursor over the named collection, or
	// returns ErrCollectionNotFound.
	Cursor(collection string) (Cursor, error)

	// Close ends the transaction. Cursors obtained from the
	// transaction are invalid afterwards.
	Close() error
}

// Cursor iterates a collection in ascending key order. All three methods
// return a nil key when no entry is available. Seek positions at the
// first key >= the target. The returned byte slices are only valid until
// the transaction is closed.
type Cursor interface {
	First() (key, value []byte)
	Seek(seek []byte) (key, value []byte)
	Next() (key, value []byte)
}
