// Package resource provides global budgets for the background work the
// runtime performs around the arena: staging memory for decoded weight
// blobs, concurrent fetch slots, and fetch IO throughput.
//
// The arena's own budget is not managed here; the arena enforces its
// capacity itself. This controller only bounds the transient resources
// consumed while weight data is on its way into the arena.
package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrStagingLimitExceeded is returned when the staging memory limit would be exceeded.
var ErrStagingLimitExceeded = errors.New("staging memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// StagingLimitBytes is the hard limit for staging memory held by decoded
	// weight blobs that have not yet been copied into the arena.
	// If 0, no hard limit is enforced (only tracking).
	StagingLimitBytes int64

	// MaxConcurrentFetches is the maximum number of weight blobs fetched
	// concurrently. If 0, defaults to 1.
	MaxConcurrentFetches int64

	// FetchLimitBytesPerSec is the maximum IO throughput for weight fetches.
	// If 0, unlimited.
	FetchLimitBytesPerSec int64
}

// Controller manages fetch-side resources (staging memory, concurrency, IO).
type Controller struct {
	cfg Config

	// Staging memory
	stagingSem  *semaphore.Weighted // nil if unlimited
	stagingUsed atomic.Int64

	// Concurrency
	fetchSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentFetches <= 0 {
		cfg.MaxConcurrentFetches = 1
	}

	c := &Controller{
		cfg:      cfg,
		fetchSem: semaphore.NewWeighted(cfg.MaxConcurrentFetches),
	}

	if cfg.StagingLimitBytes > 0 {
		c.stagingSem = semaphore.NewWeighted(cfg.StagingLimitBytes)
	}

	if cfg.FetchLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.FetchLimitBytesPerSec), int(cfg.FetchLimitBytesPerSec))
	}

	return c
}

// AcquireStaging attempts to reserve staging memory for a decoded blob.
// Returns ErrStagingLimitExceeded if the limit would be exceeded.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) AcquireStaging(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.stagingSem != nil {
		if !c.stagingSem.TryAcquire(bytes) {
			return ErrStagingLimitExceeded
		}
	}

	c.stagingUsed.Add(bytes)
	return nil
}

// ReleaseStaging releases reserved staging memory.
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

// StagingUsage returns the current staging memory usage in bytes.
func (c *Controller) StagingUsage() int64 {
	if c == nil {
		return 0
	}
	return c.stagingUsed.Load()
}

// StagingLimit returns the configured staging limit in bytes (0 if unlimited).
func (c *Controller) StagingLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.StagingLimitBytes
}

// AcquireFetch reserves a fetch slot. Blocks if all slots are busy.
func (c *Controller) AcquireFetch(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.fetchSem.Acquire(ctx, 1)
}

// ReleaseFetch releases a fetch slot.
func (c *Controller) ReleaseFetch() {
	if c == nil {
		return
	}
	c.fetchSem.Release(1)
}

// TryAcquireFetch attempts to reserve a fetch slot without blocking.
func (c *Controller) TryAcquireFetch() bool {
	if c == nil {
		return true
	}
	return c.fetchSem.TryAcquire(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
// Returns true if tokens were acquired, false otherwise.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
