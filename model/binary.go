package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Binary record format, storage-side. Records are kind-tagged and
// self-describing: uvarint identifiers and lengths, varint integers,
// little-endian IEEE float bits, length-prefixed strings. Property pairs
// are written sorted by name so identical records encode to identical
// bytes.

// EncodeEntity encodes an entity into its binary record form.
func EncodeEntity(e *Entity) []byte {
	buf := make([]byte, 0, 16+len(e.Labels)*12+len(e.Properties)*24)
	buf = binary.AppendUvarint(buf, e.ID)

	buf = binary.AppendUvarint(buf, uint64(len(e.Labels)))
	for _, l := range e.Labels {
		buf = appendString(buf, l)
	}

	return appendProperties(buf, e.Properties)
}

// DecodeEntity decodes a binary entity record. Any truncation, unknown
// kind tag, or trailing garbage yields an error; the input is never
// partially applied.
func DecodeEntity(data []byte) (Entity, error) {
	var e Entity

	id, data, err := parseUvarint(data, "entity id")
	if err != nil {
		return Entity{}, err
	}
	e.ID = id

	count, data, err := parseUvarint(data, "label count")
	if err != nil {
		return Entity{}, err
	}
	// Each label needs at least its length byte.
	if count > uint64(len(data)) {
		return Entity{}, fmt.Errorf("label count %d exceeds record size", count)
	}
	if count > 0 {
		e.Labels = make([]string, count)
		for i := range e.Labels {
			var l string
			l, data, err = parseString(data, "label")
			if err != nil {
				return Entity{}, err
			}
			e.Labels[i] = l
		}
	}

	e.Properties, data, err = parseProperties(data)
	if err != nil {
		return Entity{}, err
	}
	if len(data) != 0 {
		return Entity{}, errors.New("trailing bytes after entity record")
	}
	return e, nil
}

// EncodeEdge encodes an edge into its binary record form.
func EncodeEdge(e *Edge) []byte {
	buf := make([]byte, 0, 24+len(e.Type)+len(e.Properties)*24)
	buf = binary.AppendUvarint(buf, e.ID)
	buf = binary.AppendUvarint(buf, e.Source)
	buf = binary.AppendUvarint(buf, e.Target)
	buf = appendString(buf, e.Type)

	return appendProperties(buf, e.Properties)
}

// DecodeEdge decodes a binary edge record, with the same strictness as
// DecodeEntity.
func DecodeEdge(data []byte) (Edge, error) {
	var e Edge
	var err error

	e.ID, data, err = parseUvarint(data, "edge id")
	if err != nil {
		return Edge{}, err
	}
	e.Source, data, err = parseUvarint(data, "edge source")
	if err != nil {
		return Edge{}, err
	}
	e.Target, data, err = parseUvarint(data, "edge target")
	if err != nil {
		return Edge{}, err
	}
	e.Type, data, err = parseString(data, "edge type")
	if err != nil {
		return Edge{}, err
	}

	e.Properties, data, err = parseProperties(data)
	if err != nil {
		return Edge{}, err
	}
	if len(data) != 0 {
		return Edge{}, errors.New("trailing bytes after edge record")
	}
	return e, nil
}

func appendProperties(buf []byte, props map[string]Value) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(props)))
	if len(props) == 0 {
		return buf
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		buf = appendString(buf, name)
		buf = appendValue(buf, props[name])
	}
	return buf
}

func parseProperties(data []byte) (map[string]Value, []byte, error) {
	count, data, err := parseUvarint(data, "property count")
	if err != nil {
		return nil, nil, err
	}
	if count == 0 {
		return nil, data, nil
	}
	// Each pair needs at least a name length byte and a kind byte.
	if count > uint64(len(data)) {
		return nil, nil, fmt.Errorf("property count %d exceeds record size", count)
	}

	props := make(map[string]Value, count)
	for i := uint64(0); i < count; i++ {
		var name string
		name, data, err = parseString(data, "property name")
		if err != nil {
			return nil, nil, err
		}
		var v Value
		v, data, err = parseValue(data)
		if err != nil {
			return nil, nil, err
		}
		props[name] = v
	}
	return props, data, nil
}

func appendValue(buf []byte, v Value) []byte {
	// Write Kind (byte)
	buf = append(buf, byte(v.Kind))

	switch v.Kind {
	case KindNull:
		// No payload
	case KindBool:
		if v.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt:
		buf = binary.AppendVarint(buf, v.I64)
	case KindFloat:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64))
	case KindString:
		buf = appendString(buf, v.Str)
	case KindBytes:
		buf = binary.AppendUvarint(buf, uint64(len(v.Raw)))
		buf = append(buf, v.Raw...)
	case KindArray:
		buf = binary.AppendUvarint(buf, uint64(len(v.Arr)))
		for _, item := range v.Arr {
			buf = appendValue(buf, item)
		}
	case KindVector:
		buf = appendFloats(buf, v.Vec)
	case KindSparseVector:
		buf = binary.AppendUvarint(buf, uint64(len(v.Idx)))
		for _, idx := range v.Idx {
			buf = binary.AppendUvarint(buf, uint64(idx))
		}
		buf = appendFloats(buf, v.Vec)
	case KindMultiVector:
		buf = binary.AppendUvarint(buf, uint64(len(v.Rows)))
		for _, row := range v.Rows {
			buf = appendFloats(buf, row)
		}
	}
	return buf
}

func parseValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, errors.New("short buffer for value kind")
	}
	kind := Kind(data[0])
	data = data[1:]

	var v Value
	v.Kind = kind

	switch kind {
	case KindNull:
		// No payload
	case KindBool:
		if len(data) == 0 {
			return v, nil, errors.New("short buffer for bool")
		}
		v.B = data[0] != 0
		data = data[1:]
	case KindInt:
		i, n := binary.Varint(data)
		if n <= 0 {
			return v, nil, errors.New("invalid int value")
		}
		v.I64 = i
		data = data[n:]
	case KindFloat:
		if len(data) < 8 {
			return v, nil, errors.New("short buffer for float")
		}
		v.F64 = math.Float64frombits(binary.LittleEndian.Uint64(data))
		data = data[8:]
	case KindString:
		var err error
		v.Str, data, err = parseString(data, "string value")
		if err != nil {
			return v, nil, err
		}
	case KindBytes:
		bLen, data2, err := parseUvarint(data, "bytes length")
		if err != nil {
			return v, nil, err
		}
		if uint64(len(data2)) < bLen {
			return v, nil, errors.New("short buffer for bytes")
		}
		v.Raw = append([]byte(nil), data2[:bLen]...)
		data = data2[bLen:]
	case KindArray:
		aLen, data2, err := parseUvarint(data, "array length")
		if err != nil {
			return v, nil, err
		}
		// Each element needs at least a kind byte.
		if aLen > uint64(len(data2)) {
			return v, nil, fmt.Errorf("array length %d exceeds record size", aLen)
		}
		data = data2
		v.Arr = make([]Value, aLen)
		for i := uint64(0); i < aLen; i++ {
			item, remaining, err := parseValue(data)
			if err != nil {
				return v, nil, err
			}
			v.Arr[i] = item
			data = remaining
		}
	case KindVector:
		var err error
		v.Vec, data, err = parseFloats(data)
		if err != nil {
			return v, nil, err
		}
	case KindSparseVector:
		iLen, data2, err := parseUvarint(data, "sparse index count")
		if err != nil {
			return v, nil, err
		}
		if iLen > uint64(len(data2)) {
			return v, nil, fmt.Errorf("sparse index count %d exceeds record size", iLen)
		}
		data = data2
		if iLen > 0 {
			v.Idx = make([]uint32, iLen)
			for i := uint64(0); i < iLen; i++ {
				idx, remaining, err := parseUvarint(data, "sparse index")
				if err != nil {
					return v, nil, err
				}
				if idx > math.MaxUint32 {
					return v, nil, errors.New("sparse index out of range")
				}
				v.Idx[i] = uint32(idx)
				data = remaining
			}
		}
		v.Vec, data, err = parseFloats(data)
		if err != nil {
			return v, nil, err
		}
	case KindMultiVector:
		rLen, data2, err := parseUvarint(data, "multi-vector row count")
		if err != nil {
			return v, nil, err
		}
		if rLen > uint64(len(data2)) {
			return v, nil, fmt.Errorf("multi-vector row count %d exceeds record size", rLen)
		}
		data = data2
		if rLen > 0 {
			v.Rows = make([][]float32, rLen)
			for i := uint64(0); i < rLen; i++ {
				row, remaining, err := parseFloats(data)
				if err != nil {
					return v, nil, err
				}
				v.Rows[i] = row
				data = remaining
			}
		}
	default:
		return v, nil, fmt.Errorf("unknown value kind %d", kind)
	}
	return v, data, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func parseString(data []byte, what string) (string, []byte, error) {
	sLen, data, err := parseUvarint(data, what+" length")
	if err != nil {
		return "", nil, err
	}
	if uint64(len(data)) < sLen {
		return "", nil, errors.New("short buffer for " + what)
	}
	return string(data[:sLen]), data[sLen:], nil
}

func appendFloats(buf []byte, fs []float32) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(fs)))
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func parseFloats(data []byte) ([]float32, []byte, error) {
	count, data, err := parseUvarint(data, "vector length")
	if err != nil {
		return nil, nil, err
	}
	if count > uint64(len(data))/4 {
		return nil, nil, errors.New("short buffer for vector")
	}
	if count == 0 {
		return nil, data, nil
	}
	fs := make([]float32, count)
	for i := range fs {
		fs[i] = math.Float32frombits(binary.LittleEndian.Uint32(data))
		data = data[4:]
	}
	return fs, data, nil
}

func parseUvarint(data []byte, what string) (uint64, []byte, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil, errors.New("invalid " + what)
	}
	return v, data[n:], nil
}
