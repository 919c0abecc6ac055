package manifoldscan

import (
	"log/slog"

	"github.com/hupe1980/manifoldscan/codec"
	"github.com/hupe1980/manifoldscan/scan"
)

type options struct {
	batchSize    int
	sampleSize   int
	codec        codec.Codec
	logger       *Logger
	metrics      MetricsCollector
	handles      *scan.Handles
	materializer Materializer
}

// Option configures Register behavior.
//
// Options exist to avoid exploding the API surface with registration
// variants; the zero configuration is fully usable.
type Option func(*options)

// WithBatchSize configures how many records each produced batch holds.
// Values above the host's chunk capacity are clamped at scan time.
//
// If batchSize <= 0, the default is used.
func WithBatchSize(batchSize int) Option {
	return func(o *options) {
		if batchSize > 0 {
			o.batchSize = batchSize
		}
	}
}

// WithSampleSize configures how many records schema discovery decodes
// per invocation.
//
// If sampleSize <= 0, the default is used.
func WithSampleSize(sampleSize int) Option {
	return func(o *options) {
		if sampleSize > 0 {
			o.sampleSize = sampleSize
		}
	}
}

// WithCodec configures the codec used to render composite property
// values and label lists as JSON text.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging for bind and scan operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := manifoldscan.NewJSONLogger(slog.LevelInfo)
//	err := manifoldscan.Register(conn, manifoldscan.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures operational metrics collection.
// Pass a BasicMetricsCollector for simple in-memory stats, or implement
// MetricsCollector to integrate with your monitoring system.
// If nil is passed, metrics collection is disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithHandles configures the handle cache used to open databases.
// Registrations sharing a cache share database handles; by default all
// registrations in the process share one cache.
func WithHandles(h *scan.Handles) Option {
	return func(o *options) {
		o.handles = h
	}
}

// WithMaterializer configures remote location resolution. Locations that
// are already local paths must pass through unchanged.
func WithMaterializer(m Materializer) Option {
	return func(o *options) {
		o.materializer = m
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		batchSize:  scan.DefaultBatchSize,
		sampleSize: scan.DefaultSampleSize,
		codec:      codec.Default,
		logger:     NoopLogger(),
		metrics:    NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.handles == nil {
		o.handles = defaultHandles
	}
	if o.materializer == nil {
		o.materializer = localOnly{}
	}
	return o
}
