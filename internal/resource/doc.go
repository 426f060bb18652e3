// Package resource bounds the work a segment merge may do at once.
//
// A Controller combines three limits:
//
//   - Memory: a weighted semaphore over bytes reserved for buffered columns
//   - Workers: the number of column jobs encoding concurrently
//   - IO: a token bucket on bytes written to the merged segment
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
//	w := resource.NewWriter(ctx, file, rc)
//
// All methods are safe for concurrent use, and a nil *Controller imposes no
// limits.
package resource
