package server

import (
	"context"

	"github.com/ledgerwatch/log/v3"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ledgerwatch/graphd/internal/metrics"
)

// Task is one unit of background housekeeping (replication catch-up,
// checkpoint compaction, and the like — all external collaborators
// per spec.md §1; this package only bounds how many of them the
// process runs at once).
type Task func(ctx context.Context) error

// BackgroundRunner fans out Tasks the way AggregatorV3.BuildMissedIndices
// fans out per-domain index builds: an errgroup for first-error
// cancellation, a weighted semaphore to bound concurrency, and a
// working guard so a slow round never overlaps the next trigger.
type BackgroundRunner struct {
	sem     *semaphore.Weighted
	working atomic.Bool
}

// NewBackgroundRunner bounds concurrent tasks to maxConcurrent.
func NewBackgroundRunner(maxConcurrent int64) *BackgroundRunner {
	return &BackgroundRunner{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Run launches tasks in the background and returns immediately. If a
// prior Run call is still in flight, this call is a no-op: it returns
// false without starting anything, mirroring BuildFilesInBackground's
// "if a.working.Load() { return nil }" re-entrancy guard.
func (r *BackgroundRunner) Run(ctx context.Context, tasks ...Task) bool {
	if !r.working.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer r.working.Store(false)

		g, gctx := errgroup.WithContext(ctx)
		for _, t := range tasks {
			t := t
			g.Go(func() error {
				if err := r.sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer r.sem.Release(1)
				return t(gctx)
			})
		}
		metrics.BackgroundTasksRun.Add(len(tasks))
		if err := g.Wait(); err != nil {
			metrics.BackgroundTasksFailed.Inc()
			log.Warn("[server] background task failed", "err", err)
		}
	}()
	return true
}

// Working reports whether a Run call is currently in flight.
func (r *BackgroundRunner) Working() bool { return r.working.Load() }
