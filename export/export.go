// Package export writes graph snapshots as JSON Lines: one header line
// describing the export, then one line per entity and per edge. Output
// can be layered with zstd or lz4 compression and streamed to any
// io.Writer, including a multipart S3 upload.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/manifoldscan/codec"
	"github.com/hupe1980/manifoldscan/model"
	"github.com/hupe1980/manifoldscan/scan"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

// Format identifies the export container in the header line.
const Format = "manifold-export"

// Version is bumped when the line shape changes incompatibly.
const Version = 1

// Header is the first line of every export.
type Header struct {
	Format     string `json:"format"`
	Version    int    `json:"version"`
	Codec      string `json:"codec"`
	Source     string `json:"source"`
	ExportedAt string `json:"exported_at"`
}

// Line carries one record. Exactly one of Entity and Edge is set,
// indicated by Kind.
type Line struct {
	Kind   string        `json:"kind"`
	Entity *model.Entity `json:"entity,omitempty"`
	Edge   *model.Edge   `json:"edge,omitempty"`
}

// Record kinds used in Line.
const (
	KindEntity = "entity"
	KindEdge   = "edge"
)

// Summary reports what an export wrote.
type Summary struct {
	Entities int64
	Edges    int64
}

// Options configure an Exporter.
type Options struct {
	// BatchSize is the pager batch size. Default: scan.DefaultBatchSize.
	BatchSize int

	// Codec encodes the header and record lines. Default: codec.Default.
	Codec codec.Codec

	// Labels restricts the entity stream to records carrying at least
	// one of the given labels. Empty exports all entities.
	Labels []string

	// EdgeTypes restricts the edge stream to the given types. Empty
	// exports all edges.
	EdgeTypes []string
}

// Exporter streams a graph database into JSON Lines.
type Exporter struct {
	eng *bolt.Engine
	o   Options
}

// New creates an Exporter over an open database.
func New(eng *bolt.Engine, optFns ...func(*Options)) *Exporter {
	o := Options{
		BatchSize: scan.DefaultBatchSize,
		Codec:     codec.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.BatchSize <= 0 {
		o.BatchSize = scan.DefaultBatchSize
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}

	return &Exporter{eng: eng, o: o}
}

// Write streams the header, all entities, then all edges to w. Label and
// type filters are applied through the roaring indexes, so filtered
// records are skipped by id without re-checking properties.
func (e *Exporter) Write(w io.Writer) (Summary, error) {
	var sum Summary

	bw := bufio.NewWriter(w)

	if err := e.writeLine(bw, Header{
		Format:     Format,
		Version:    Version,
		Codec:      e.o.Codec.Name(),
		Source:     e.eng.Path(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return sum, err
	}

	entityFilter, err := unionBitmap(e.o.Labels, e.eng.LabelBitmap)
	if err != nil {
		return sum, err
	}
	edgeFilter, err := unionBitmap(e.o.EdgeTypes, e.eng.EdgeTypeBitmap)
	if err != nil {
		return sum, err
	}

	entities := scan.NewEntityPager(e.eng, e.o.BatchSize)
	for {
		batch, err := entities.NextBatch()
		if err != nil {
			return sum, fmt.Errorf("scan entities: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			ent := &batch[i]
			if entityFilter != nil && !entityFilter.Contains(ent.ID) {
				continue
			}
			if err := e.writeLine(bw, Line{Kind: KindEntity, Entity: ent}); err != nil {
				return sum, err
			}
			sum.Entities++
		}
	}

	edges := scan.NewEdgePager(e.eng, e.o.BatchSize)
	for {
		batch, err := edges.NextBatch()
		if err != nil {
			return sum, fmt.Errorf("scan edges: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			ed := &batch[i]
			if edgeFilter != nil && !edgeFilter.Contains(ed.ID) {
				continue
			}
			if err := e.writeLine(bw, Line{Kind: KindEdge, Edge: ed}); err != nil {
				return sum, err
			}
			sum.Edges++
		}
	}

	return sum, bw.Flush()
}

func (e *Exporter) writeLine(w *bufio.Writer, v any) error {
	data, err := e.o.Codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode export line: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// unionBitmap merges the index bitmaps of all terms. A nil result means
// no filter.
func unionBitmap(terms []string, lookup func(string) (*roaring64.Bitmap, error)) (*roaring64.Bitmap, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	out := roaring64.New()
	for _, term := range terms {
		bm, err := lookup(term)
		if err != nil {
			return nil, fmt.Errorf("filter index %q: %w", term, err)
		}
		out.Or(bm)
	}
	return out, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// WrapWriter layers compression over w according to the extension of
// name (.zst or .lz4). The returned writer must be closed to flush the
// final compressed frame; closing it does not close w.
func WrapWriter(w io.Writer, name string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return zw, nil
	case strings.HasSuffix(name, ".lz4"):
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}
