package manifoldscan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    bindCounter    prometheus.Counter
//	    batchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordBind(function string, duration time.Duration, err error) {
//	    p.bindCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordBind is called after each table function bind, which opens
	// the database and discovers the column set. duration is the total
	// time taken, err is nil if successful.
	RecordBind(function string, duration time.Duration, err error)

	// RecordBatch is called after each batch a scan produces. rows is
	// the number of rows in the batch (zero on exhaustion), duration is
	// the time taken to read and project it.
	RecordBatch(function string, rows int, duration time.Duration, err error)

	// RecordMaterialize is called after each location resolution,
	// including passthrough of local paths.
	RecordMaterialize(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBind(string, time.Duration, error)       {}
func (NoopMetricsCollector) RecordBatch(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMaterialize(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BindCount             atomic.Int64
	BindErrors            atomic.Int64
	BindTotalNanos        atomic.Int64
	BatchCount            atomic.Int64
	BatchRows             atomic.Int64
	BatchErrors           atomic.Int64
	BatchTotalNanos       atomic.Int64
	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializeTotalNanos atomic.Int64
}

// RecordBind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBind(_ string, duration time.Duration, err error) {
	b.BindCount.Add(1)
	b.BindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BindErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(_ string, rows int, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchRows.Add(int64(rows))
	b.BatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BindCount:         b.BindCount.Load(),
		BindErrors:        b.BindErrors.Load(),
		BindAvgNanos:      b.getAvgBindNanos(),
		BatchCount:        b.BatchCount.Load(),
		BatchRows:         b.BatchRows.Load(),
		BatchErrors:       b.BatchErrors.Load(),
		BatchAvgNanos:     b.getAvgBatchNanos(),
		MaterializeCount:  b.MaterializeCount.Load(),
		MaterializeErrors: b.MaterializeErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBindNanos() int64 {
	count := b.BindCount.Load()
	if count == 0 {
		return 0
	}
	return b.BindTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgBatchNanos() int64 {
	count := b.BatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.BatchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BindCount         int64
	BindErrors        int64
	BindAvgNanos      int64
	BatchCount        int64
	BatchRows         int64
	BatchErrors       int64
	BatchAvgNanos     int64
	MaterializeCount  int64
	MaterializeErrors int64
}
