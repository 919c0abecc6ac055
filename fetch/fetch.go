package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/manifoldscan/resource"
)

// Options configure a Fetcher.
type Options struct {
	// Controller bounds concurrent transfers, staged bytes, and network
	// throughput. If nil, a controller with default limits is used.
	Controller *resource.Controller

	// ChunkSize is the ranged-read size for parallel downloads.
	// Default: 8MB.
	ChunkSize int64

	// Parallel is the number of concurrent chunk reads per download.
	// Default: 4.
	Parallel int

	// Logger receives transfer diagnostics. If nil, logs are discarded.
	Logger *slog.Logger
}

// Fetcher materializes remote database locations into a local cache
// directory. Fetched files are addressed by location and stay in the
// cache for the life of the directory: database handles remain open
// process-wide, so a materialized file must never disappear under a
// running scan.
//
// Locations ending in .zst or .lz4 are decompressed after download; the
// cached file holds the plain database.
type Fetcher struct {
	cacheDir  string
	chunkSize int64
	parallel  int
	rc        *resource.Controller
	logger    *slog.Logger

	mu     sync.RWMutex
	mounts []mount

	group singleflight.Group
}

var _ interface {
	Materialize(ctx context.Context, location string) (string, error)
} = (*Fetcher)(nil)

type mount struct {
	prefix string
	store  Store
}

// New creates a Fetcher caching into cacheDir.
func New(cacheDir string, optFns ...func(*Options)) *Fetcher {
	o := Options{
		ChunkSize: 8 * 1024 * 1024,
		Parallel:  4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Controller == nil {
		o.Controller = resource.NewController(resource.Config{})
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 8 * 1024 * 1024
	}
	if o.Parallel <= 0 {
		o.Parallel = 4
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return &Fetcher{
		cacheDir:  cacheDir,
		chunkSize: o.ChunkSize,
		parallel:  o.Parallel,
		rc:        o.Controller,
		logger:    o.Logger,
	}
}

// Register mounts a store under a location prefix, e.g. "s3://graphs".
// The longest matching prefix wins; the remainder of the location is the
// object name passed to the store.
func (f *Fetcher) Register(prefix string, store Store) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounts = append(f.mounts, mount{prefix: strings.TrimSuffix(prefix, "/"), store: store})
}

// Materialize resolves a location to a local file path, downloading it
// on first use. Plain local paths pass through unchanged; locations with
// a scheme but no matching mount are an error.
//
// Concurrent materializations of one location share a single download.
func (f *Fetcher) Materialize(ctx context.Context, location string) (string, error) {
	st, name, ok := f.resolve(location)
	if !ok {
		if strings.Contains(location, "://") {
			return "", fmt.Errorf("no store registered for %q", location)
		}
		return location, nil
	}

	target := f.targetPath(location)

	v, err, _ := f.group.Do(location, func() (any, error) {
		if _, err := os.Stat(target); err == nil {
			f.logger.Debug("cache hit", "location", location, "path", target)
			return target, nil
		}
		if err := f.download(ctx, st, name, location, target); err != nil {
			return nil, err
		}
		return target, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) resolve(location string) (Store, string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	best := -1
	for i, m := range f.mounts {
		if !strings.HasPrefix(location, m.prefix) {
			continue
		}
		if best < 0 || len(m.prefix) > len(f.mounts[best].prefix) {
			best = i
		}
	}
	if best < 0 {
		return nil, "", false
	}

	name := strings.TrimPrefix(location, f.mounts[best].prefix)
	name = strings.TrimPrefix(name, "/")
	return f.mounts[best].store, name, true
}

// targetPath derives the cache file for a location: a fingerprint to
// keep distinct locations from colliding, plus the base name with any
// compression suffix stripped.
func (f *Fetcher) targetPath(location string) string {
	sum := sha256.Sum256([]byte(location))
	base := strings.TrimSuffix(path.Base(location), compressSuffix(location))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8])+"-"+base)
}

func (f *Fetcher) download(ctx context.Context, st Store, name, location, target string) error {
	if err := f.rc.AcquireTransfer(ctx); err != nil {
		return err
	}
	defer f.rc.ReleaseTransfer()

	obj, err := st.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %q: %w", location, err)
	}
	defer func() { _ = obj.Close() }()

	size := obj.Size()
	if err := f.rc.AcquireStaging(ctx, size); err != nil {
		return err
	}
	defer f.rc.ReleaseStaging(size)

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return err
	}

	stage := filepath.Join(f.cacheDir, ".staging-"+uuid.NewString())
	if err := f.fetchChunks(ctx, obj, size, stage); err != nil {
		_ = os.Remove(stage)
		return fmt.Errorf("download %q: %w", location, err)
	}

	if suffix := compressSuffix(location); suffix != "" {
		plain := stage + ".plain"
		derr := decompress(stage, plain, suffix)
		_ = os.Remove(stage)
		if derr != nil {
			_ = os.Remove(plain)
			return fmt.Errorf("decompress %q: %w", location, derr)
		}
		stage = plain
	}

	if err := os.Rename(stage, target); err != nil {
		_ = os.Remove(stage)
		return err
	}

	f.logger.Info("materialized",
		"location", location,
		"path", target,
		"bytes", size,
	)
	return nil
}

// fetchChunks downloads the object into the staging file with bounded
// parallel ranged reads.
func (f *Fetcher) fetchChunks(ctx context.Context, obj Object, size int64, stage string) error {
	out, err := os.OpenFile(stage, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallel)

	for off := int64(0); off < size; off += f.chunkSize {
		length := min(f.chunkSize, size-off)
		g.Go(func() error {
			if err := f.rc.AcquireNetwork(gctx, int(length)); err != nil {
				return err
			}
			buf := make([]byte, length)
			n, rerr := obj.ReadAt(buf, off)
			// EOF with a full buffer is a complete final chunk.
			if rerr != nil && !(errors.Is(rerr, io.EOF) && n == len(buf)) {
				return rerr
			}
			if n != len(buf) {
				return fmt.Errorf("short read at %d: %d of %d bytes", off, n, len(buf))
			}
			_, werr := out.WriteAt(buf, off)
			return werr
		})
	}

	err = g.Wait()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

func compressSuffix(location string) string {
	switch {
	case strings.HasSuffix(location, ".zst"):
		return ".zst"
	case strings.HasSuffix(location, ".lz4"):
		return ".lz4"
	default:
		return ""
	}
}

func decompress(src, dst, suffix string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	var r io.Reader
	switch suffix {
	case ".zst":
		zr, zerr := zstd.NewReader(in)
		if zerr != nil {
			_ = out.Close()
			return zerr
		}
		defer zr.Close()
		r = zr
	case ".lz4":
		r = lz4.NewReader(in)
	default:
		_ = out.Close()
		return fmt.Errorf("unsupported compression %q", suffix)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
