package bolt

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.etcd.io/bbolt"

	"github.com/hupe1980/manifoldscan/storage"
)

// Stats summarizes the contents of a database: record counts per
// collection and per-term cardinalities from the secondary indexes.
type Stats struct {
	Entities  int
	Edges     int
	Labels    map[string]uint64
	EdgeTypes map[string]uint64
}

// Stats reads the counts in one snapshot.
func (e *Engine) Stats() (Stats, error) {
	s := Stats{
		Labels:    make(map[string]uint64),
		EdgeTypes: make(map[string]uint64),
	}

	err := e.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket([]byte(storage.CollectionNodes)); b != nil {
			s.Entities = b.Stats().KeyN
		}
		if b := tx.Bucket([]byte(storage.CollectionEdges)); b != nil {
			s.Edges = b.Stats().KeyN
		}
		if err := indexCardinalities(tx, idxLabels, s.Labels); err != nil {
			return err
		}
		return indexCardinalities(tx, idxEdgeTypes, s.EdgeTypes)
	})
	if err != nil {
		return Stats{}, err
	}
	return s, nil
}

func indexCardinalities(tx *bbolt.Tx, bucket []byte, out map[string]uint64) error {
	b := tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.ForEach(func(k, v []byte) error {
		bm := roaring64.New()
		if err := bm.UnmarshalBinary(v); err != nil {
			return err
		}
		out[string(k)] = bm.GetCardinality()
		return nil
	})
}
