// Package worker provides the fire-and-forget execution unit behind the
// upload endpoint. Jobs run concurrently with the caller on a bounded
// goroutine pool; there is no handle, no result, and no delivery guarantee.
// A durable queue with retries would slot in behind the same Submit shape.
package worker

import (
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// Launcher wraps an ants pool as a handle-less task submitter.
type Launcher struct {
	pool   *ants.Pool
	logger *slog.Logger
}

func NewLauncher(size int) (*Launcher, error) {
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool failed: %w", err)
	}
	return &Launcher{
		pool:   pool,
		logger: slog.Default().With("component", "worker"),
	}, nil
}

// Submit schedules the job for background execution. An error means the job
// was never accepted (pool released or overloaded); once accepted, the
// caller learns nothing further about it.
func (l *Launcher) Submit(job func()) error {
	if err := l.pool.Submit(job); err != nil {
		l.logger.Error("submit background job failed", "err", err)
		return fmt.Errorf("submit background job failed: %w", err)
	}
	return nil
}

// Release stops the pool. Pending jobs are abandoned; the launcher must not
// be used afterwards.
func (l *Launcher) Release() {
	l.pool.Release()
}
