package manifoldscan

import (
	"fmt"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/scan"
	"github.com/hupe1980/manifoldscan/storage"
)

// tableSource carries the bind-time state shared by both table functions.
// The schema and columns are fixed at bind; the pager that streams
// batches is created in Init.
type tableSource struct {
	eng     storage.Engine
	schema  *scan.Schema
	columns []duckdb.ColumnInfo
	project *scan.Projector
	batch   int
	logger  *Logger
	metrics MetricsCollector
	rows    int64
}

func (s *tableSource) ColumnInfos() []duckdb.ColumnInfo { return s.columns }

// Cardinality is unknown: counting would cost a full pass.
func (s *tableSource) Cardinality() *duckdb.CardinalityInfo { return nil }

// chunkLimit clamps the configured batch size to what one chunk can hold.
func (s *tableSource) chunkLimit() int {
	limit := s.batch
	if c := duckdb.GetDataChunkCapacity(); limit > c {
		limit = c
	}
	return limit
}

type entitySource struct {
	tableSource
	pager *scan.Pager[model.Entity]
}

func (s *entitySource) Init() {
	s.pager = scan.NewEntityPager(s.eng, s.chunkLimit())
}

func (s *entitySource) FillChunk(chunk duckdb.DataChunk) (err error) {
	start := time.Now()
	produced := 0
	defer func() { s.metrics.RecordBatch(EntitiesFunction, produced, time.Since(start), err) }()
	defer guard(EntitiesFunction+" fill", s.logger, &err)

	batch, err := s.pager.NextBatch()
	if err != nil {
		return err
	}

	sink := &chunkSink{chunk: chunk}
	s.project.Entities(s.schema, batch, sink)
	if sink.err != nil {
		return sink.err
	}

	if len(batch) == 0 {
		s.logger.LogScanExhausted(EntitiesFunction, s.rows)
	}
	produced = len(batch)
	s.rows += int64(len(batch))
	return nil
}

type edgeSource struct {
	tableSource
	pager *scan.Pager[model.Edge]
}

func (s *edgeSource) Init() {
	s.pager = scan.NewEdgePager(s.eng, s.chunkLimit())
}

func (s *edgeSource) FillChunk(chunk duckdb.DataChunk) (err error) {
	start := time.Now()
	produced := 0
	defer func() { s.metrics.RecordBatch(EdgesFunction, produced, time.Since(start), err) }()
	defer guard(EdgesFunction+" fill", s.logger, &err)

	batch, err := s.pager.NextBatch()
	if err != nil {
		return err
	}

	sink := &chunkSink{chunk: chunk}
	s.project.Edges(s.schema, batch, sink)
	if sink.err != nil {
		return sink.err
	}

	if len(batch) == 0 {
		s.logger.LogScanExhausted(EdgesFunction, s.rows)
	}
	produced = len(batch)
	s.rows += int64(len(batch))
	return nil
}

// chunkSink adapts a data chunk to the scan.Sink cell interface. The
// first cell error sticks and fails the fill; a zero SetSize ends the
// scan on the host side.
type chunkSink struct {
	chunk duckdb.DataChunk
	err   error
}

func (c *chunkSink) set(col, row int, v any) {
	if err := c.chunk.SetValue(col, row, v); err != nil && c.err == nil {
		c.err = fmt.Errorf("set cell (%d,%d): %w", col, row, err)
	}
}

func (c *chunkSink) SetNull(col, row int)               { c.set(col, row, nil) }
func (c *chunkSink) SetBool(col, row int, v bool)       { c.set(col, row, v) }
func (c *chunkSink) SetInt64(col, row int, v int64)     { c.set(col, row, v) }
func (c *chunkSink) SetFloat64(col, row int, v float64) { c.set(col, row, v) }
func (c *chunkSink) SetText(col, row int, v string)     { c.set(col, row, v) }
func (c *chunkSink) SetBytes(col, row int, v []byte)    { c.set(col, row, v) }

func (c *chunkSink) SetSize(rows int) {
	if err := c.chunk.SetSize(rows); err != nil && c.err == nil {
		c.err = fmt.Errorf("set chunk size %d: %w", rows, err)
	}
}

// columnInfos converts a discovered schema into host column metadata.
func columnInfos(s *scan.Schema) ([]duckdb.ColumnInfo, error) {
	infos := make([]duckdb.ColumnInfo, len(s.Columns))
	for i, c := range s.Columns {
		t, err := duckdb.NewTypeInfo(duckdbType(c.Type))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		infos[i] = duckdb.ColumnInfo{Name: c.Name, T: t}
	}
	return infos, nil
}

func duckdbType(t scan.ColumnType) duckdb.Type {
	switch t {
	case scan.TypeBoolean:
		return duckdb.TYPE_BOOLEAN
	case scan.TypeBigInt:
		return duckdb.TYPE_BIGINT
	case scan.TypeDouble:
		return duckdb.TYPE_DOUBLE
	case scan.TypeBlob:
		return duckdb.TYPE_BLOB
	default:
		return duckdb.TYPE_VARCHAR
	}
}
