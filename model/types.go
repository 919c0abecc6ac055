package model

import (
	"encoding/json"
	"math"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBytes represents a raw byte sequence.
	KindBytes
	// KindArray represents an array of values.
	KindArray
	// KindVector represents a dense float32 vector.
	KindVector
	// KindSparseVector represents a sparse vector (sorted indices + values).
	KindSparseVector
	// KindMultiVector represents a sequence of dense vectors.
	KindMultiVector
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	case KindSparseVector:
		return "sparse_vector"
	case KindMultiVector:
		return "multi_vector"
	default:
		return "invalid"
	}
}

// Value is a property value attached to an entity or edge.
//
// Exactly one representation is populated, selected by Kind. Values are
// small and passed by value; the slice-backed kinds share their backing
// arrays, so callers must treat a decoded Value as read-only.
type Value struct {
	Kind Kind

	B   bool
	I64 int64
	F64 float64
	Str string
	Raw []byte
	Arr []Value

	// Vec holds the dense vector for KindVector and the coefficient
	// values for KindSparseVector (paired with Idx).
	Vec []float32
	Idx []uint32

	// Rows holds the vectors of a KindMultiVector value.
	Rows [][]float32
}

// Null returns a null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// Int returns an integer value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bytes returns a raw byte sequence value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Raw: b} }

// Array returns an array value over the given elements.
func Array(elems ...Value) Value { return Value{Kind: KindArray, Arr: elems} }

// Vector returns a dense vector value.
func Vector(v []float32) Value { return Value{Kind: KindVector, Vec: v} }

// SparseVector returns a sparse vector value. Indices and values must have
// equal length; indices are expected to be sorted ascending.
func SparseVector(indices []uint32, values []float32) Value {
	return Value{Kind: KindSparseVector, Idx: indices, Vec: values}
}

// MultiVector returns a multi-vector value over the given rows.
func MultiVector(rows [][]float32) Value {
	return Value{Kind: KindMultiVector, Rows: rows}
}

// IsNull reports whether the value is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports whether two values have the same kind and contents.
// Floats compare by bit pattern, so NaN equals NaN.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.B == o.B
	case KindInt:
		return v.I64 == o.I64
	case KindFloat:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case KindString:
		return v.Str == o.Str
	case KindBytes:
		return bytesEqual(v.Raw, o.Raw)
	case KindArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case KindVector:
		return floatsEqual(v.Vec, o.Vec)
	case KindSparseVector:
		if len(v.Idx) != len(o.Idx) {
			return false
		}
		for i := range v.Idx {
			if v.Idx[i] != o.Idx[i] {
				return false
			}
		}
		return floatsEqual(v.Vec, o.Vec)
	case KindMultiVector:
		if len(v.Rows) != len(o.Rows) {
			return false
		}
		for i := range v.Rows {
			if !floatsEqual(v.Rows[i], o.Rows[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floatsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

type sparseJSON struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// MarshalJSON implements json.Marshaler. Each kind maps to its natural
// JSON form: scalars to JSON scalars, bytes to a base64 string, arrays and
// vectors to JSON arrays, sparse vectors to an indices/values object.
// NaN and infinite floats are not representable and return an error.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.native())
}

// native returns the Go value whose default JSON encoding is the canonical
// form of v. The switch is exhaustive over all kinds.
func (v Value) native() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.B
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.Str
	case KindBytes:
		return v.Raw
	case KindArray:
		out := make([]any, len(v.Arr))
		for i := range v.Arr {
			out[i] = v.Arr[i].native()
		}
		return out
	case KindVector:
		return v.Vec
	case KindSparseVector:
		return sparseJSON{Indices: v.Idx, Values: v.Vec}
	case KindMultiVector:
		return v.Rows
	default:
		return nil
	}
}

// Entity is a node-like record: an identifier, a set of labels, and an
// open-ended property map. Entities are immutable once decoded.
type Entity struct {
	ID         uint64           `json:"id"`
	Labels     []string         `json:"labels"`
	Properties map[string]Value `json:"properties,omitempty"`
}

// Edge is a relationship record between two entities. Type is the edge's
// type tag (e.g. "WORKS_AT"). Edges are immutable once decoded.
type Edge struct {
	ID         uint64           `json:"id"`
	Source     uint64           `json:"source"`
	Target     uint64           `json:"target"`
	Type       string           `json:"type"`
	Properties map[string]Value `json:"properties,omitempty"`
}
