package fetch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	inner Store
	opens atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (Object, error) {
	s.opens.Add(1)
	return s.inner.Open(ctx, name)
}

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)

	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func lz4Compress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)

	_, err := lw.Write(data)
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	return buf.Bytes()
}

func TestMaterializeLocalPassthrough(t *testing.T) {
	f := New(t.TempDir())

	path, err := f.Materialize(context.Background(), "/data/graph.manifold")
	require.NoError(t, err)
	assert.Equal(t, "/data/graph.manifold", path)
}

func TestMaterializeUnregisteredScheme(t *testing.T) {
	f := New(t.TempDir())

	_, err := f.Materialize(context.Background(), "gs://bucket/graph.manifold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no store registered")
}

func TestMaterializeDownloadsChunks(t *testing.T) {
	payload := testPayload(5000)

	store := NewMemoryStore()
	store.Put(context.Background(), "graphs/demo.manifold", payload)

	f := New(t.TempDir(), func(o *Options) {
		o.ChunkSize = 64
		o.Parallel = 3
	})
	f.Register("mem://lake", store)

	path, err := f.Materialize(context.Background(), "mem://lake/graphs/demo.manifold")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMaterializeCacheHit(t *testing.T) {
	inner := NewMemoryStore()
	inner.Put(context.Background(), "demo.manifold", testPayload(256))
	store := &countingStore{inner: inner}

	f := New(t.TempDir())
	f.Register("mem://lake", store)

	first, err := f.Materialize(context.Background(), "mem://lake/demo.manifold")
	require.NoError(t, err)

	second, err := f.Materialize(context.Background(), "mem://lake/demo.manifold")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), store.opens.Load())
}

func TestMaterializeConcurrent(t *testing.T) {
	inner := NewMemoryStore()
	inner.Put(context.Background(), "demo.manifold", testPayload(2048))
	store := &countingStore{inner: inner}

	f := New(t.TempDir(), func(o *Options) {
		o.ChunkSize = 128
	})
	f.Register("mem://lake", store)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			path, err := f.Materialize(context.Background(), "mem://lake/demo.manifold")
			assert.NoError(t, err)
			paths[i] = path
		}()
	}
	wg.Wait()

	for _, path := range paths[1:] {
		assert.Equal(t, paths[0], path)
	}
	assert.Equal(t, int64(1), store.opens.Load())
}

func TestMaterializeZstd(t *testing.T) {
	payload := testPayload(10000)

	store := NewMemoryStore()
	store.Put(context.Background(), "demo.manifold.zst", zstdCompress(t, payload))

	f := New(t.TempDir(), func(o *Options) {
		o.ChunkSize = 512
	})
	f.Register("mem://lake", store)

	path, err := f.Materialize(context.Background(), "mem://lake/demo.manifold.zst")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-demo.manifold"), "compression suffix must be stripped: %s", path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMaterializeLz4(t *testing.T) {
	payload := testPayload(10000)

	store := NewMemoryStore()
	store.Put(context.Background(), "demo.manifold.lz4", lz4Compress(t, payload))

	f := New(t.TempDir())
	f.Register("mem://lake", store)

	path, err := f.Materialize(context.Background(), "mem://lake/demo.manifold.lz4")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMaterializeNotFound(t *testing.T) {
	f := New(t.TempDir())
	f.Register("mem://lake", NewMemoryStore())

	_, err := f.Materialize(context.Background(), "mem://lake/missing.manifold")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMaterializeLongestPrefixWins(t *testing.T) {
	outer := NewMemoryStore()
	inner := NewMemoryStore()
	inner.Put(context.Background(), "demo.manifold", testPayload(64))

	f := New(t.TempDir())
	f.Register("mem://lake", outer)
	f.Register("mem://lake/graphs", inner)

	_, err := f.Materialize(context.Background(), "mem://lake/graphs/demo.manifold")
	require.NoError(t, err)
}

func TestMaterializeStagingCleanup(t *testing.T) {
	store := NewMemoryStore()
	store.Put(context.Background(), "broken.manifold.zst", []byte("not a zstd stream"))

	dir := t.TempDir()
	f := New(dir)
	f.Register("mem://lake", store)

	_, err := f.Materialize(context.Background(), "mem://lake/broken.manifold.zst")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed downloads must not leave staging files")
}

func TestTargetPathDistinct(t *testing.T) {
	f := New(t.TempDir())

	a := f.targetPath("mem://lake/a/demo.manifold")
	b := f.targetPath("mem://lake/b/demo.manifold")

	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Dir(a), filepath.Dir(b))
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.manifold"), testPayload(128), 0o644))

	store := NewLocalStore(dir)

	obj, err := store.Open(context.Background(), "demo.manifold")
	require.NoError(t, err)
	defer func() { _ = obj.Close() }()

	assert.Equal(t, int64(128), obj.Size())

	buf := make([]byte, 32)
	_, err = obj.ReadAt(buf, 64)
	require.NoError(t, err)
	assert.Equal(t, testPayload(128)[64:96], buf)

	_, err = store.Open(context.Background(), "missing.manifold")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	store.Put(context.Background(), "demo.manifold", []byte("hello world"))

	obj, err := store.Open(context.Background(), "demo.manifold")
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := obj.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	store.Delete(context.Background(), "demo.manifold")
	_, err = store.Open(context.Background(), "demo.manifold")
	require.ErrorIs(t, err, ErrNotFound)
}
