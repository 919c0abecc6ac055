package scan

import (
	"strconv"

	"github.com/hupe1980/manifoldscan/codec"
	"github.com/hupe1980/manifoldscan/model"
)

// Sink is the columnar output buffer the host exposes for one batch:
// per-column, per-row cell insertion plus the batch row-count setter.
// Cells not written for a row stay null.
type Sink interface {
	SetNull(col, row int)
	SetBool(col, row int, v bool)
	SetInt64(col, row int, v int64)
	SetFloat64(col, row int, v float64)
	SetText(col, row int, v string)
	SetBytes(col, row int, v []byte)

	// SetSize fixes the number of rows in the batch. Zero signals an
	// exhausted scan to the host.
	SetSize(rows int)
}

// Projector maps decoded records onto a Sink according to a discovered
// schema. Serialization of composite values goes through the configured
// codec; a value that cannot be rendered degrades to a fallback literal
// rather than failing the row.
type Projector struct {
	codec codec.Codec
}

// NewProjector returns a projector rendering composites with c, or
// codec.Default when c is nil.
func NewProjector(c codec.Codec) *Projector {
	if c == nil {
		c = codec.Default
	}
	return &Projector{codec: c}
}

// Entities projects one batch of entities into the sink and sets the
// batch size.
func (p *Projector) Entities(s *Schema, records []model.Entity, sink Sink) {
	for row := range records {
		e := &records[row]
		for col := range s.Columns {
			c := &s.Columns[col]
			switch {
			case c.Property != "":
				p.property(e.Properties, c.Property, col, row, sink)
			case c.Name == "id":
				sink.SetText(col, row, strconv.FormatUint(e.ID, 10))
			case c.Name == "labels":
				sink.SetText(col, row, p.renderStrings(e.Labels))
			}
		}
	}
	sink.SetSize(len(records))
}

// Edges projects one batch of edges into the sink and sets the batch
// size.
func (p *Projector) Edges(s *Schema, records []model.Edge, sink Sink) {
	for row := range records {
		e := &records[row]
		for col := range s.Columns {
			c := &s.Columns[col]
			switch {
			case c.Property != "":
				p.property(e.Properties, c.Property, col, row, sink)
			case c.Name == "id":
				sink.SetText(col, row, strconv.FormatUint(e.ID, 10))
			case c.Name == "source":
				sink.SetText(col, row, strconv.FormatUint(e.Source, 10))
			case c.Name == "target":
				sink.SetText(col, row, strconv.FormatUint(e.Target, 10))
			case c.Name == "edge_type":
				sink.SetText(col, row, e.Type)
			}
		}
	}
	sink.SetSize(len(records))
}

func (p *Projector) property(props map[string]model.Value, name string, col, row int, sink Sink) {
	v, ok := props[name]
	if !ok {
		sink.SetNull(col, row)
		return
	}
	sink.SetText(col, row, p.RenderValue(v))
}

// RenderValue returns the textual projection of a value. Scalars render
// directly; composites render as canonical JSON with an empty-container
// fallback. The switch is exhaustive over all kinds.
func (p *Projector) RenderValue(v model.Value) string {
	switch v.Kind {
	case model.KindNull:
		return ""
	case model.KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case model.KindInt:
		return strconv.FormatInt(v.I64, 10)
	case model.KindFloat:
		return strconv.FormatFloat(v.F64, 'f', -1, 64)
	case model.KindString:
		return v.Str
	case model.KindBytes, model.KindArray, model.KindVector, model.KindMultiVector:
		return p.renderJSON(v, "[]")
	case model.KindSparseVector:
		return p.renderJSON(v, "{}")
	default:
		return ""
	}
}

func (p *Projector) renderJSON(v model.Value, fallback string) string {
	b, err := p.codec.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(b)
}

func (p *Projector) renderStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, err := p.codec.Marshal(ss)
	if err != nil {
		return "[]"
	}
	return string(b)
}
