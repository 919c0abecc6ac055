package scan

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage"
)

// DecodeFunc decodes one raw stored value into a record.
type DecodeFunc[T any] func([]byte) (T, error)

// FetchBatch reads up to limit decodable records from the collection,
// starting strictly after the continuation key. It opens its own read
// transaction and cursor and holds nothing across calls.
//
// The continuation key identifies the last record already returned: nil
// seeks to the first entry; otherwise the cursor seeks to the key and
// advances one step if it still exists. If the collection has meanwhile
// lost that exact key, the seek lands on the next key >= it, which is the
// correct resumption point. Records that fail to decode are skipped
// silently; each decoded record advances the returned continuation key to
// its raw storage key. An absent collection yields an empty batch.
func FetchBatch[T any](eng storage.Engine, collection string, decode DecodeFunc[T], after []byte, limit int) ([]T, []byte, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	tx, err := eng.BeginRead()
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	defer func() { _ = tx.Close() }()

	c, err := tx.Cursor(collection)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", collection, err)
	}

	var k, v []byte
	if after == nil {
		k, v = c.First()
	} else {
		k, v = c.Seek(after)
		if k != nil && bytes.Equal(k, after) {
			k, v = c.Next()
		}
	}

	records := make([]T, 0, limit)
	var lastSeen []byte
	for k != nil {
		if len(records) >= limit {
			break
		}
		if rec, err := decode(v); err == nil {
			records = append(records, rec)
			lastSeen = k
		}
		k, v = c.Next()
	}

	// The key borrows the transaction's memory; copy before closing.
	var last []byte
	if lastSeen != nil {
		last = append([]byte(nil), lastSeen...)
	}
	return records, last, nil
}

// Pager drives FetchBatch across produce calls for one scan invocation:
// NotStarted -> Streaming -> Exhausted. The continuation key and done
// flag are the only state and are mutex-guarded in case the host produces
// from more than one thread.
type Pager[T any] struct {
	eng        storage.Engine
	collection string
	decode     DecodeFunc[T]
	limit      int

	mu   sync.Mutex
	last []byte
	done bool
}

// NewPager returns a pager over the collection. A batch size <= 0 uses
// DefaultBatchSize.
func NewPager[T any](eng storage.Engine, collection string, decode DecodeFunc[T], batchSize int) *Pager[T] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pager[T]{
		eng:        eng,
		collection: collection,
		decode:     decode,
		limit:      batchSize,
	}
}

// NewEntityPager returns a pager over the nodes collection.
func NewEntityPager(eng storage.Engine, batchSize int) *Pager[model.Entity] {
	return NewPager(eng, storage.CollectionNodes, model.DecodeEntity, batchSize)
}

// NewEdgePager returns a pager over the edges collection.
func NewEdgePager(eng storage.Engine, batchSize int) *Pager[model.Edge] {
	return NewPager(eng, storage.CollectionEdges, model.DecodeEdge, batchSize)
}

// NextBatch returns the next batch of records. An empty batch, whatever
// its cause, transitions the pager to Exhausted; every later call
// returns an empty batch without touching storage.
func (p *Pager[T]) NextBatch() ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return nil, nil
	}

	records, last, err := p.FetchAfter(p.last)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		p.done = true
		return nil, nil
	}
	p.last = last
	return records, nil
}

// FetchAfter runs one stateless fetch with the pager's configuration.
// It does not consult or mutate the pager's scan state.
func (p *Pager[T]) FetchAfter(after []byte) ([]T, []byte, error) {
	return FetchBatch(p.eng, p.collection, p.decode, after, p.limit)
}

// Exhausted reports whether the pager has reached the terminal state.
func (p *Pager[T]) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// BatchSize returns the configured batch size.
func (p *Pager[T]) BatchSize() int { return p.limit }
