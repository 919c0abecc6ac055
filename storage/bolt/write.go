package bolt

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.etcd.io/bbolt"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage"
)

// PutEntity writes one entity and updates the label index.
func (e *Engine) PutEntity(ent *model.Entity) error {
	return e.PutEntities([]model.Entity{*ent})
}

// PutEntities writes a batch of entities in a single transaction.
func (e *Engine) PutEntities(ents []model.Entity) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(storage.CollectionNodes))
		if err != nil {
			return err
		}
		for i := range ents {
			ent := &ents[i]
			if err := b.Put(Key(ent.ID), model.EncodeEntity(ent)); err != nil {
				return err
			}
			for _, label := range ent.Labels {
				if err := indexAdd(tx, idxLabels, label, ent.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// PutEdge writes one edge and updates the edge-type index.
func (e *Engine) PutEdge(ed *model.Edge) error {
	return e.PutEdges([]model.Edge{*ed})
}

// PutEdges writes a batch of edges in a single transaction.
func (e *Engine) PutEdges(eds []model.Edge) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(storage.CollectionEdges))
		if err != nil {
			return err
		}
		for i := range eds {
			ed := &eds[i]
			if err := b.Put(Key(ed.ID), model.EncodeEdge(ed)); err != nil {
				return err
			}
			if ed.Type != "" {
				if err := indexAdd(tx, idxEdgeTypes, ed.Type, ed.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// PutRaw writes an arbitrary key/value pair into the named collection,
// bypassing the record codec. Used by fixtures and migration tooling to
// plant records the codec cannot produce.
func (e *Engine) PutRaw(collection string, key, value []byte) error {
	return e.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

// indexAdd sets the id bit in the roaring bitmap stored under
// bucket[term].
func indexAdd(tx *bbolt.Tx, bucket []byte, term string, id uint64) error {
	b, err := tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return err
	}

	bm := roaring64.New()
	if data := b.Get([]byte(term)); data != nil {
		if err := bm.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("index bitmap for %q: %w", term, err)
		}
	}
	bm.Add(id)

	out, err := bm.MarshalBinary()
	if err != nil {
		return err
	}
	return b.Put([]byte(term), out)
}

// LabelBitmap returns the set of entity ids carrying the given label.
// Unknown labels yield an empty bitmap.
func (e *Engine) LabelBitmap(label string) (*roaring64.Bitmap, error) {
	return e.indexBitmap(idxLabels, label)
}

// EdgeTypeBitmap returns the set of edge ids of the given type. Unknown
// types yield an empty bitmap.
func (e *Engine) EdgeTypeBitmap(edgeType string) (*roaring64.Bitmap, error) {
	return e.indexBitmap(idxEdgeTypes, edgeType)
}

func (e *Engine) indexBitmap(bucket []byte, term string) (*roaring64.Bitmap, error) {
	bm := roaring64.New()
	err := e.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		data := b.Get([]byte(term))
		if data == nil {
			return nil
		}
		return bm.UnmarshalBinary(data)
	})
	if err != nil {
		return nil, fmt.Errorf("index bitmap for %q: %w", term, err)
	}
	return bm, nil
}
