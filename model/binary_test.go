package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRoundtrip(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
	}{
		{
			name:   "Minimal",
			entity: Entity{ID: 1},
		},
		{
			name:   "Labels",
			entity: Entity{ID: 2, Labels: []string{"Person", "Employee"}},
		},
		{
			name: "ScalarProps",
			entity: Entity{
				ID:     3,
				Labels: []string{"Person"},
				Properties: map[string]Value{
					"name":   String("Alice"),
					"age":    Int(30),
					"score":  Float(math.MaxFloat64),
					"active": Bool(true),
					"note":   Null(),
				},
			},
		},
		{
			name: "CompositeProps",
			entity: Entity{
				ID: math.MaxUint64,
				Properties: map[string]Value{
					"blob":      Bytes([]byte{0, 1, 2, 255}),
					"tags":      Array(String("a"), Array(Int(1), Bool(false))),
					"embedding": Vector([]float32{0.1, -0.2, 3}),
					"sparse":    SparseVector([]uint32{3, 17, 4096}, []float32{1, 2, 3}),
					"tokens":    MultiVector([][]float32{{1, 2}, {3}}),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeEntity(&tt.entity)

			got, err := DecodeEntity(data)
			require.NoError(t, err)

			assert.Equal(t, tt.entity.ID, got.ID)
			assert.Equal(t, tt.entity.Labels, got.Labels)
			require.Equal(t, len(tt.entity.Properties), len(got.Properties))
			for name, want := range tt.entity.Properties {
				assert.True(t, want.Equal(got.Properties[name]), "property %q", name)
			}
		})
	}
}

func TestEdgeRoundtrip(t *testing.T) {
	edge := Edge{
		ID:     100,
		Source: 1,
		Target: 3,
		Type:   "WORKS_AT",
		Properties: map[string]Value{
			"since": Int(2020),
		},
	}

	data := EncodeEdge(&edge)

	got, err := DecodeEdge(data)
	require.NoError(t, err)
	assert.Equal(t, edge.ID, got.ID)
	assert.Equal(t, edge.Source, got.Source)
	assert.Equal(t, edge.Target, got.Target)
	assert.Equal(t, edge.Type, got.Type)
	assert.True(t, edge.Properties["since"].Equal(got.Properties["since"]))
}

func TestEncodeDeterministic(t *testing.T) {
	// Property pairs are sorted by name, so two logically equal records
	// must encode to identical bytes regardless of map iteration order.
	e := Entity{
		ID:     7,
		Labels: []string{"Person"},
		Properties: map[string]Value{
			"zeta": Int(1), "alpha": Int(2), "mid": Int(3), "beta": Int(4),
		},
	}

	first := EncodeEntity(&e)
	for range 8 {
		assert.Equal(t, first, EncodeEntity(&e))
	}
}

func TestDecodeCorrupt(t *testing.T) {
	valid := EncodeEntity(&Entity{
		ID:         1,
		Labels:     []string{"Person"},
		Properties: map[string]Value{"name": String("Alice")},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Truncated", valid[:len(valid)/2]},
		{"TrailingBytes", append(append([]byte(nil), valid...), 0xff)},
		{"UnknownKind", []byte{1, 0, 1, 1, 'k', 99}},
		// Label count far beyond the record size must fail fast instead
		// of attempting a huge allocation.
		{"HostileLabelCount", []byte{1, 0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEntity(tt.data)
			assert.Error(t, err)
		})
	}

	t.Run("EdgeTruncated", func(t *testing.T) {
		e := EncodeEdge(&Edge{ID: 1, Source: 2, Target: 3, Type: "KNOWS"})
		_, err := DecodeEdge(e[:3])
		assert.Error(t, err)
	})
}
