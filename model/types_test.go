package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"Null", Null(), `null`},
		{"BoolTrue", Bool(true), `true`},
		{"BoolFalse", Bool(false), `false`},
		{"Int", Int(-42), `-42`},
		{"Float", Float(30.5), `30.5`},
		{"FloatWhole", Float(30), `30`},
		{"String", String("Alice"), `"Alice"`},
		{"Bytes", Bytes([]byte{0xde, 0xad}), `"3q0="`},
		{"Array", Array(Int(1), Int(2), Int(3)), `[1,2,3]`},
		{"ArrayMixed", Array(String("a"), Bool(true), Null()), `["a",true,null]`},
		{"ArrayNested", Array(Int(1), Array(Int(2))), `[1,[2]]`},
		{"Vector", Vector([]float32{1, 2.5}), `[1,2.5]`},
		{"SparseVector", SparseVector([]uint32{0, 7}, []float32{0.5, 1}), `{"indices":[0,7],"values":[0.5,1]}`},
		{"MultiVector", MultiVector([][]float32{{1}, {2, 3}}), `[[1],[2,3]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}

	t.Run("NaNFails", func(t *testing.T) {
		_, err := json.Marshal(Float(math.NaN()))
		assert.Error(t, err)

		// NaN nested in a composite must fail the whole marshal.
		_, err = json.Marshal(Array(Int(1), Float(math.NaN())))
		assert.Error(t, err)
	})
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"NullNull", Null(), Null(), true},
		{"NullInt", Null(), Int(0), false},
		{"IntSame", Int(7), Int(7), true},
		{"IntDiff", Int(7), Int(8), false},
		{"NaNEqualsNaN", Float(math.NaN()), Float(math.NaN()), true},
		{"StringSame", String("x"), String("x"), true},
		{"BytesSame", Bytes([]byte{1, 2}), Bytes([]byte{1, 2}), true},
		{"BytesDiff", Bytes([]byte{1, 2}), Bytes([]byte{1, 3}), false},
		{"ArraySame", Array(Int(1), String("a")), Array(Int(1), String("a")), true},
		{"ArrayLen", Array(Int(1)), Array(Int(1), Int(2)), false},
		{"VectorSame", Vector([]float32{1, 2}), Vector([]float32{1, 2}), true},
		{"SparseSame", SparseVector([]uint32{1}, []float32{2}), SparseVector([]uint32{1}, []float32{2}), true},
		{"SparseIdxDiff", SparseVector([]uint32{1}, []float32{2}), SparseVector([]uint32{2}, []float32{2}), false},
		{"MultiSame", MultiVector([][]float32{{1}}), MultiVector([][]float32{{1}}), true},
		{"KindMismatch", Int(1), Float(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sparse_vector", KindSparseVector.String())
	assert.Equal(t, "invalid", KindInvalid.String())
	assert.Equal(t, "invalid", Kind(200).String())
}
