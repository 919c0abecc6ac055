package export

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/manifoldscan/codec"
	"github.com/hupe1980/manifoldscan/testutil"
)

// recordProbe decodes export lines the way a downstream consumer would:
// plain JSON, no knowledge of internal value kinds.
type recordProbe struct {
	Kind   string      `json:"kind"`
	Entity *entityJSON `json:"entity"`
	Edge   *edgeJSON   `json:"edge"`
}

type entityJSON struct {
	ID         uint64         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

type edgeJSON struct {
	ID         uint64         `json:"id"`
	Source     uint64         `json:"source"`
	Target     uint64         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

func parseExport(t *testing.T, data []byte) (Header, []recordProbe) {
	t.Helper()

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.NotEmpty(t, lines)

	var head Header
	require.NoError(t, codec.Default.Unmarshal([]byte(lines[0]), &head))

	var records []recordProbe
	for _, raw := range lines[1:] {
		var rec recordProbe
		require.NoError(t, codec.Default.Unmarshal([]byte(raw), &rec))
		records = append(records, rec)
	}
	return head, records
}

func TestExportDemoGraph(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	sum, err := New(eng).Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, Summary{Entities: 3, Edges: 3}, sum)

	head, records := parseExport(t, buf.Bytes())
	assert.Equal(t, Format, head.Format)
	assert.Equal(t, Version, head.Version)
	assert.Equal(t, codec.Default.Name(), head.Codec)
	assert.Equal(t, eng.Path(), head.Source)
	assert.NotEmpty(t, head.ExportedAt)

	require.Len(t, records, 6)

	var entityIDs, edgeIDs []uint64
	for _, rec := range records {
		switch rec.Kind {
		case KindEntity:
			require.NotNil(t, rec.Entity)
			assert.Nil(t, rec.Edge)
			entityIDs = append(entityIDs, rec.Entity.ID)
		case KindEdge:
			require.NotNil(t, rec.Edge)
			assert.Nil(t, rec.Entity)
			edgeIDs = append(edgeIDs, rec.Edge.ID)
		default:
			t.Fatalf("unexpected line kind %q", rec.Kind)
		}
	}
	assert.Equal(t, []uint64{1, 2, 3}, entityIDs)
	assert.Equal(t, []uint64{100, 101, 102}, edgeIDs)

	// Entities come before edges.
	assert.Equal(t, KindEntity, records[2].Kind)
	assert.Equal(t, KindEdge, records[3].Kind)

	alice := records[0].Entity
	assert.Equal(t, []string{"Person"}, alice.Labels)
	assert.Equal(t, "Alice", alice.Properties["name"])

	worksAt := records[3].Edge
	assert.Equal(t, uint64(1), worksAt.Source)
	assert.Equal(t, uint64(3), worksAt.Target)
	assert.Equal(t, "WORKS_AT", worksAt.Type)
}

func TestExportLabelFilter(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	sum, err := New(eng, func(o *Options) {
		o.Labels = []string{"Person"}
	}).Write(&buf)
	require.NoError(t, err)

	assert.Equal(t, Summary{Entities: 2, Edges: 3}, sum)

	_, records := parseExport(t, buf.Bytes())
	for _, rec := range records {
		if rec.Kind == KindEntity {
			assert.Contains(t, rec.Entity.Labels, "Person")
		}
	}
}

func TestExportUnknownLabel(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	sum, err := New(eng, func(o *Options) {
		o.Labels = []string{"Robot"}
	}).Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, Summary{Entities: 0, Edges: 3}, sum)
}

func TestExportEdgeTypeFilter(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	sum, err := New(eng, func(o *Options) {
		o.EdgeTypes = []string{"WORKS_AT"}
	}).Write(&buf)
	require.NoError(t, err)

	assert.Equal(t, Summary{Entities: 3, Edges: 2}, sum)

	_, records := parseExport(t, buf.Bytes())
	for _, rec := range records {
		if rec.Kind == KindEdge {
			assert.Equal(t, "WORKS_AT", rec.Edge.Type)
		}
	}
}

func TestExportZstd(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	wc, err := WrapWriter(&buf, "demo.jsonl.zst")
	require.NoError(t, err)

	_, err = New(eng).Write(wc)
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	zr, err := zstd.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	require.NoError(t, err)

	_, records := parseExport(t, plain)
	assert.Len(t, records, 6)
}

func TestExportLz4(t *testing.T) {
	eng := testutil.OpenGraph(t)
	testutil.SeedDemo(t, eng)

	var buf bytes.Buffer
	wc, err := WrapWriter(&buf, "demo.jsonl.lz4")
	require.NoError(t, err)

	_, err = New(eng).Write(wc)
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	plain, err := io.ReadAll(lz4.NewReader(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)

	_, records := parseExport(t, plain)
	assert.Len(t, records, 6)
}

func TestExportPlainPassthrough(t *testing.T) {
	var buf bytes.Buffer
	wc, err := WrapWriter(&buf, "demo.jsonl")
	require.NoError(t, err)

	_, err = wc.Write([]byte("raw"))
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	assert.Equal(t, "raw", buf.String())
}

func TestExportEmptyDatabase(t *testing.T) {
	eng := testutil.OpenGraph(t)

	var buf bytes.Buffer
	sum, err := New(eng).Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	head, records := parseExport(t, buf.Bytes())
	assert.Equal(t, Format, head.Format)
	assert.Empty(t, records)
}
