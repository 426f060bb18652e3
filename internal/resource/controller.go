package resource

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a single reservation is larger than
// the whole memory budget.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes bounds the memory reserved by in-flight jobs.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxWorkers is the maximum number of concurrent jobs.
	// If 0, defaults to 1.
	MaxWorkers int64

	// IOLimitBytesPerSec is the maximum write throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller bounds memory, concurrency and write throughput of a merge.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	workers *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{MaxWorkers: 1}
	}
	return c.cfg
}

// AcquireMemory reserves bytes, blocking until enough memory is released or
// ctx is done. Requests larger than the limit fail with ErrMemoryLimitExceeded.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return ErrMemoryLimitExceeded
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireWorker reserves a worker slot, blocking while all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// AcquireIO waits until the IO limit allows n bytes. Requests above the
// per-second budget are split into budget-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Writer throttles writes through a Controller.
type Writer struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

// NewWriter wraps w so that every write first acquires IO budget from c.
func NewWriter(ctx context.Context, w io.Writer, c *Controller) *Writer {
	return &Writer{ctx: ctx, w: w, c: c}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.c.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}
