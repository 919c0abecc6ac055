package scan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage"
)

const (
	// DefaultSampleSize bounds how many records schema discovery decodes.
	DefaultSampleSize = 100

	// DefaultBatchSize is the number of records per produced batch.
	DefaultBatchSize = 1024

	// PropPrefix prefixes every property-derived column name.
	PropPrefix = "prop_"
)

// ColumnType is the primitive column type published to the query engine.
type ColumnType uint8

const (
	// TypeBoolean is a boolean column.
	TypeBoolean ColumnType = iota
	// TypeBigInt is a 64-bit integer column.
	TypeBigInt
	// TypeDouble is a 64-bit float column.
	TypeDouble
	// TypeVarchar is a text column.
	TypeVarchar
	// TypeBlob is a raw byte column.
	TypeBlob
)

// String returns the SQL-ish name of the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeBoolean:
		return "BOOLEAN"
	case TypeBigInt:
		return "BIGINT"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBlob:
		return "BLOB"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

// inferType maps a value kind to the column type it would carry natively.
// Composite kinds publish as text since they render to JSON. The switch
// is exhaustive over all kinds; unknown kinds cannot survive decode.
func inferType(v model.Value) ColumnType {
	switch v.Kind {
	case model.KindBool:
		return TypeBoolean
	case model.KindInt:
		return TypeBigInt
	case model.KindFloat:
		return TypeDouble
	case model.KindString:
		return TypeVarchar
	case model.KindBytes:
		return TypeBlob
	case model.KindNull, model.KindArray, model.KindVector, model.KindSparseVector, model.KindMultiVector:
		return TypeVarchar
	default:
		return TypeVarchar
	}
}

// Column is one column of a discovered schema. Property carries the
// source property name for property-derived columns and is empty for
// fixed columns.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Property string
}

// Schema is the ordered column list for one scan invocation: fixed
// columns first, then one column per property name observed during
// sampling, in lexicographic order. Schemas are immutable once
// discovered and are re-discovered on every bind rather than cached.
type Schema struct {
	Columns []Column

	// Observed records the distinct value kinds seen per property during
	// sampling, for diagnostics. Property columns always publish as
	// VARCHAR regardless: values outside the sample must never be
	// inconvertible to the declared type.
	Observed map[string][]ColumnType

	byName map[string]int
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// entityFixed returns the fixed leading columns of an entity scan.
func entityFixed() []Column {
	return []Column{
		{Name: "id", Type: TypeVarchar},
		{Name: "labels", Type: TypeVarchar},
	}
}

// edgeFixed returns the fixed leading columns of an edge scan.
func edgeFixed() []Column {
	return []Column{
		{Name: "id", Type: TypeVarchar},
		{Name: "source", Type: TypeVarchar},
		{Name: "target", Type: TypeVarchar},
		{Name: "edge_type", Type: TypeVarchar},
	}
}

// DiscoverEntities samples the nodes collection and returns the entity
// scan schema. A sample bound <= 0 uses DefaultSampleSize.
func DiscoverEntities(eng storage.Engine, sample int) (*Schema, error) {
	return discover(eng, storage.CollectionNodes, entityFixed(), sample, func(data []byte) (map[string]model.Value, error) {
		e, err := model.DecodeEntity(data)
		if err != nil {
			return nil, err
		}
		return e.Properties, nil
	})
}

// DiscoverEdges samples the edges collection and returns the edge scan
// schema.
func DiscoverEdges(eng storage.Engine, sample int) (*Schema, error) {
	return discover(eng, storage.CollectionEdges, edgeFixed(), sample, func(data []byte) (map[string]model.Value, error) {
		e, err := model.DecodeEdge(data)
		if err != nil {
			return nil, err
		}
		return e.Properties, nil
	})
}

func discover(eng storage.Engine, collection string, fixed []Column, sample int, props func([]byte) (map[string]model.Value, error)) (*Schema, error) {
	if sample <= 0 {
		sample = DefaultSampleSize
	}

	tx, err := eng.BeginRead()
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", collection, err)
	}
	defer func() { _ = tx.Close() }()

	c, err := tx.Cursor(collection)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		// Absent collection: base schema, not an error.
		return finalize(fixed, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", collection, err)
	}

	observed := make(map[string]map[ColumnType]struct{})
	decoded := 0
	for k, v := c.First(); k != nil && decoded < sample; k, v = c.Next() {
		ps, err := props(v)
		if err != nil {
			// Undecodable records don't count against the sample.
			continue
		}
		decoded++
		for name, val := range ps {
			set, ok := observed[name]
			if !ok {
				set = make(map[ColumnType]struct{})
				observed[name] = set
			}
			set[inferType(val)] = struct{}{}
		}
	}

	return finalize(fixed, observed), nil
}

// finalize builds the ordered, deterministic column list: fixed columns
// first, then property columns sorted by name, always VARCHAR and
// nullable.
func finalize(fixed []Column, observed map[string]map[ColumnType]struct{}) *Schema {
	s := &Schema{
		Columns:  append([]Column(nil), fixed...),
		Observed: make(map[string][]ColumnType, len(observed)),
	}

	names := make([]string, 0, len(observed))
	for name := range observed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s.Columns = append(s.Columns, Column{
			Name:     PropPrefix + name,
			Type:     TypeVarchar,
			Nullable: true,
			Property: name,
		})

		kinds := make([]ColumnType, 0, len(observed[name]))
		for t := range observed[name] {
			kinds = append(kinds, t)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		s.Observed[name] = kinds
	}

	s.byName = make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		s.byName[c.Name] = i
	}
	return s
}
