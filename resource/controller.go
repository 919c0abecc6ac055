// Package resource bounds what the fetch layer may consume: concurrent
// transfers, staged bytes on local disk, and network throughput.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds transfer resource limits.
type Config struct {
	// StagingLimitBytes is the hard limit for bytes staged on local disk
	// by in-flight materializations. If 0, no hard limit is enforced
	// (only tracking).
	StagingLimitBytes int64

	// MaxTransfers is the maximum number of concurrent remote transfers.
	// If 0, defaults to 4.
	MaxTransfers int64

	// NetworkLimitBytesPerSec is the maximum transfer throughput.
	// If 0, unlimited.
	NetworkLimitBytesPerSec int64
}

// Controller manages the transfer resources shared by all
// materializations in the process.
type Controller struct {
	cfg Config

	stagingSem  *semaphore.Weighted // nil if unlimited
	stagingUsed atomic.Int64

	transferSem *semaphore.Weighted

	netLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxTransfers <= 0 {
		cfg.MaxTransfers = 4
	}

	c := &Controller{
		cfg:         cfg,
		transferSem: semaphore.NewWeighted(cfg.MaxTransfers),
	}

	if cfg.StagingLimitBytes > 0 {
		c.stagingSem = semaphore.NewWeighted(cfg.StagingLimitBytes)
	}

	if cfg.NetworkLimitBytesPerSec > 0 {
		c.netLimiter = rate.NewLimiter(rate.Limit(cfg.NetworkLimitBytesPerSec), int(cfg.NetworkLimitBytesPerSec))
	}

	return c
}

// AcquireStaging reserves staging space for a download. If a hard limit
// is configured and usage would exceed it, this blocks until space frees
// up or ctx is canceled.
func (c *Controller) AcquireStaging(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.stagingSem != nil {
		if err := c.stagingSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.stagingUsed.Add(bytes)
	return nil
}

// TryAcquireStaging reserves staging space without blocking.
// Returns true if acquired, false if the limit would be exceeded.
func (c *Controller) TryAcquireStaging(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.stagingSem != nil {
		if !c.stagingSem.TryAcquire(bytes) {
			return false
		}
	}

	c.stagingUsed.Add(bytes)
	return true
}

// ReleaseStaging releases reserved staging space.
func (c *Controller) ReleaseStaging(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.stagingSem != nil {
		c.stagingSem.Release(bytes)
	}
	c.stagingUsed.Add(-bytes)
}

// StagingUsage returns the bytes currently staged.
func (c *Controller) StagingUsage() int64 {
	return c.stagingUsed.Load()
}

// AcquireTransfer reserves a transfer slot. Blocks if all slots are busy.
func (c *Controller) AcquireTransfer(ctx context.Context) error {
	return c.transferSem.Acquire(ctx, 1)
}

// TryAcquireTransfer reserves a transfer slot without blocking.
func (c *Controller) TryAcquireTransfer() bool {
	return c.transferSem.TryAcquire(1)
}

// ReleaseTransfer releases a transfer slot.
func (c *Controller) ReleaseTransfer() {
	c.transferSem.Release(1)
}

// AcquireNetwork waits until the throughput limit allows the specified
// number of bytes.
func (c *Controller) AcquireNetwork(ctx context.Context, bytes int) error {
	if c.netLimiter == nil {
		return nil
	}
	return c.netLimiter.WaitN(ctx, bytes)
}
