// Package executor owns the worker goroutines that drain the scheduler's
// ready queues.
//
// Each worker runs a loop function supplied by the scheduler until that
// function returns. The pool only decides how many workers exist and waits
// for all of them on Wait.
package executor

import (
	"context"
	"runtime"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Loop is the body of one worker. It returns when the worker should exit.
type Loop func(ctx context.Context, workerID int)

// Pool is a fixed set of worker goroutines.
type Pool struct {
	group *errgroup.Group
	size  int
}

// DefaultSize is half of the available CPUs, and at least one.
func DefaultSize() int {
	return max(1, runtime.NumCPU()/2)
}

// Start spawns size workers, each running loop. A size of zero or less uses
// DefaultSize.
func Start(ctx context.Context, size int, loop Loop) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting worker pool.", "workers", size)

	p := &Pool{group: new(errgroup.Group), size: size}
	for i := range size {
		workerID := i
		p.group.Go(func() error {
			logger.Debug("Worker started.", "workerID", workerID)
			loop(ctx, workerID)
			logger.Debug("Worker finished.", "workerID", workerID)
			return nil
		})
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Wait blocks until every worker loop has returned.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
