package scan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/storage"
	"github.com/hupe1980/manifoldscan/storage/bolt"
	"github.com/hupe1980/manifoldscan/testutil"
)

func columnNames(s *Schema) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func TestDiscoverEntities(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	s, err := DiscoverEntities(eng, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "labels", "prop_age", "prop_founded", "prop_name"}, columnNames(s))

	for _, c := range s.Columns[:2] {
		assert.False(t, c.Nullable, c.Name)
		assert.Empty(t, c.Property, c.Name)
	}
	for _, c := range s.Columns[2:] {
		assert.Equal(t, TypeVarchar, c.Type, c.Name)
		assert.True(t, c.Nullable, c.Name)
		assert.NotEmpty(t, c.Property, c.Name)
	}

	assert.Equal(t, []ColumnType{TypeBigInt}, s.Observed["age"])
	assert.Equal(t, []ColumnType{TypeBigInt}, s.Observed["founded"])
	assert.Equal(t, []ColumnType{TypeVarchar}, s.Observed["name"])

	i, ok := s.Index("prop_name")
	require.True(t, ok)
	assert.Equal(t, 4, i)
	_, ok = s.Index("prop_missing")
	assert.False(t, ok)
}

func TestDiscoverEdges(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	s, err := DiscoverEdges(eng, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "source", "target", "edge_type", "prop_since"}, columnNames(s))
	assert.Equal(t, []ColumnType{TypeBigInt}, s.Observed["since"])
}

func TestDiscoverAbsentCollection(t *testing.T) {
	eng := testutil.OpenGraph(t)

	ents, err := DiscoverEntities(eng, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "labels"}, columnNames(ents))
	assert.Empty(t, ents.Observed)

	edges, err := DiscoverEdges(eng, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "source", "target", "edge_type"}, columnNames(edges))
}

func TestDiscoverDeterministic(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedEntities(t, eng, 50)

	first, err := DiscoverEntities(eng, 0)
	require.NoError(t, err)

	for range 5 {
		s, err := DiscoverEntities(eng, 0)
		require.NoError(t, err)
		assert.Equal(t, first.Columns, s.Columns)
		assert.Equal(t, first.Observed, s.Observed)
	}
}

func TestDiscoverSampleBound(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedEntities(t, eng, DefaultSampleSize)

	// Key-ordered after the whole sample, so its property is invisible
	// to a default discovery.
	late := model.Entity{
		ID:         500,
		Labels:     []string{"Node"},
		Properties: map[string]model.Value{"late": model.Bool(true)},
	}
	require.NoError(t, eng.PutEntity(&late))

	s, err := DiscoverEntities(eng, 0)
	require.NoError(t, err)
	_, ok := s.Index("prop_late")
	assert.False(t, ok)

	s, err = DiscoverEntities(eng, 2*DefaultSampleSize)
	require.NoError(t, err)
	_, ok = s.Index("prop_late")
	assert.True(t, ok)
}

func TestDiscoverSkipsUndecodable(t *testing.T) {
	eng := testutil.OpenGraph(t)

	// Sorts before every demo record and cannot decode.
	garbage := bytes.Repeat([]byte{0xff}, 16)
	require.NoError(t, eng.PutRaw(storage.CollectionNodes, bolt.Key(0), garbage))
	testutil.SeedDemo(t, eng)

	// Sample bound of exactly the demo size: if the undecodable record
	// consumed a slot, the company entity would be missed and prop_founded
	// would not appear.
	s, err := DiscoverEntities(eng, 3)
	require.NoError(t, err)
	_, ok := s.Index("prop_founded")
	assert.True(t, ok)
}

func TestDiscoverObservedKinds(t *testing.T) {
	eng := testutil.OpenGraph(t)
	require.NoError(t, eng.PutEntities([]model.Entity{
		{ID: 1, Properties: map[string]model.Value{"x": model.Int(1)}},
		{ID: 2, Properties: map[string]model.Value{"x": model.String("one")}},
		{ID: 3, Properties: map[string]model.Value{"v": model.Vector([]float32{1, 2})}},
	}))

	s, err := DiscoverEntities(eng, 0)
	require.NoError(t, err)

	// Mixed kinds accumulate; the column type stays text regardless.
	assert.Equal(t, []ColumnType{TypeBigInt, TypeVarchar}, s.Observed["x"])
	assert.Equal(t, []ColumnType{TypeVarchar}, s.Observed["v"])

	i, ok := s.Index("prop_x")
	require.True(t, ok)
	assert.Equal(t, TypeVarchar, s.Columns[i].Type)
}

func TestColumnTypeString(t *testing.T) {
	assert.Equal(t, "BOOLEAN", TypeBoolean.String())
	assert.Equal(t, "BIGINT", TypeBigInt.String())
	assert.Equal(t, "DOUBLE", TypeDouble.String())
	assert.Equal(t, "VARCHAR", TypeVarchar.String())
	assert.Equal(t, "BLOB", TypeBlob.String())
}
