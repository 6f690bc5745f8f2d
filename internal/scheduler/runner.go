// internal/scheduler/runner.go
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/bridge-vaults-exporter/internal/selfmetrics"
)

// Cycle is one unit of scheduled work.
type Cycle func(ctx context.Context)

// Runner triggers Cycle on a fixed interval.
// At most one cycle runs at a time: a tick arriving while a cycle is
// still running is dropped, never queued.
type Runner struct {
	interval time.Duration
	cycle    Cycle
	metrics  *selfmetrics.Metrics
	log      *zap.Logger

	running atomic.Bool
	skipped atomic.Uint64
	wg      sync.WaitGroup
}

func New(interval time.Duration, cycle Cycle, metrics *selfmetrics.Metrics, log *zap.Logger) (*Runner, error) {
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be > 0")
	}
	if cycle == nil {
		return nil, errors.New("scheduler: cycle required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		interval: interval,
		cycle:    cycle,
		metrics:  metrics,
		log:      log,
	}, nil
}

// Run fires one cycle immediately, then one per interval, until ctx is
// done. It returns only after the in-flight cycle (if any) has finished.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// Skipped returns the number of dropped ticks.
func (r *Runner) Skipped() uint64 {
	return r.skipped.Load()
}

func (r *Runner) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		r.metrics.CycleSkipped()
		r.log.Warn("previous cycle still running; tick skipped",
			zap.Duration("interval", r.interval),
		)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		r.cycle(ctx)
	}()
}
