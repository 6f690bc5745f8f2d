// internal/collector/collector.go
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
	"github.com/tamzrod/bridge-vaults-exporter/internal/selfmetrics"
	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

// Persister stores a published snapshot for warm restarts.
type Persister interface {
	Save(ctx context.Context, s *snapshot.Snapshot) error
}

// Options configure a Collector. Plan, Readers and Store are required.
type Options struct {
	Plan    Plan
	Readers map[string]chain.Reader // keyed by network name

	Retry        chain.RetryPolicy
	CycleTimeout time.Duration // 0 => no cycle deadline beyond ctx

	// PublishOnTotalFailure publishes an empty candidate when every
	// target failed. Default keeps the previous snapshot.
	PublishOnTotalFailure bool

	Store     *snapshot.Store
	Persister Persister // optional
	Metrics   *selfmetrics.Metrics
	Log       *zap.Logger

	Now func() time.Time
}

// Collector runs collection cycles over a fixed plan.
// One Collector per process. Cycles must not overlap; the scheduler
// guarantees that.
type Collector struct {
	plan    Plan
	readers []chain.Reader        // aligned with plan.Networks
	sems    []*semaphore.Weighted // aligned with plan.Networks

	retry          chain.RetryPolicy
	cycleTimeout   time.Duration
	publishOnTotal bool

	store     *snapshot.Store
	persister Persister
	metrics   *selfmetrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func New(opts Options) (*Collector, error) {
	if opts.Store == nil {
		return nil, errors.New("collector: store required")
	}
	if len(opts.Plan.Networks) == 0 {
		return nil, errors.New("collector: empty plan")
	}

	c := &Collector{
		plan:           opts.Plan,
		readers:        make([]chain.Reader, len(opts.Plan.Networks)),
		sems:           make([]*semaphore.Weighted, len(opts.Plan.Networks)),
		retry:          opts.Retry,
		cycleTimeout:   opts.CycleTimeout,
		publishOnTotal: opts.PublishOnTotalFailure,
		store:          opts.Store,
		persister:      opts.Persister,
		metrics:        opts.Metrics,
		log:            opts.Log,
		now:            opts.Now,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}

	names := make(map[string]struct{}, len(opts.Plan.Networks))
	for i, n := range opts.Plan.Networks {
		if _, dup := names[n.Name]; dup {
			return nil, fmt.Errorf("collector: network %q appears twice", n.Name)
		}
		names[n.Name] = struct{}{}

		r, ok := opts.Readers[n.Name]
		if !ok || r == nil {
			return nil, fmt.Errorf("collector: network %q has no reader", n.Name)
		}
		limit := n.MaxConcurrency
		if limit < 1 {
			limit = 1
		}
		c.readers[i] = r
		c.sems[i] = semaphore.NewWeighted(int64(limit))
	}
	return c, nil
}

// ---- CYCLE ----

type slot struct {
	idx int
	res Result
}

// Collect reads every target once and assembles a candidate snapshot
// stamped with at. A failed target contributes no series; the others
// are unaffected. Targets still in flight at the cycle deadline are
// counted as unfinished and left behind: their late results land in a
// buffered channel nobody reads.
func (c *Collector) Collect(ctx context.Context, at time.Time) (*snapshot.Snapshot, Stats) {
	cctx, cancel := ctx, context.CancelFunc(func() {})
	if c.cycleTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, c.cycleTimeout)
	}
	defer cancel()

	total := c.plan.Len()
	out := make(chan slot, total)

	idx := 0
	for ni := range c.plan.Networks {
		n := c.plan.Networks[ni]
		reader := c.readers[ni]
		sem := c.sems[ni]

		for _, t := range n.Targets {
			go func(i int, t Target) {
				if err := sem.Acquire(cctx, 1); err != nil {
					out <- slot{idx: i, res: Result{Target: t, Err: err}}
					return
				}
				defer sem.Release(1)
				out <- slot{idx: i, res: c.read(cctx, n, reader, t)}
			}(idx, t)
			idx++
		}
	}

	results := make([]*Result, total)
	received := 0

wait:
	for received < total {
		select {
		case s := <-out:
			results[s.idx] = &s.res
			received++
		case <-cctx.Done():
			break wait
		}
	}

	// take whatever completed alongside the deadline
drain:
	for received < total {
		select {
		case s := <-out:
			results[s.idx] = &s.res
			received++
		default:
			break drain
		}
	}

	return c.assemble(at, results)
}

// assemble merges results in plan order. Duplicate series (same name and
// labels, e.g. token_decimals shared by two vaults) keep the first value.
func (c *Collector) assemble(at time.Time, results []*Result) (*snapshot.Snapshot, Stats) {
	st := Stats{Targets: len(results)}
	seen := make(map[string]struct{})
	var series []snapshot.SeriesValue

	idx := 0
	for _, n := range c.plan.Networks {
		for _, t := range n.Targets {
			r := results[idx]
			idx++

			if r == nil {
				st.Unfinished++
				c.metrics.TargetFailed(t.Network, "deadline")
				c.log.Warn("target unfinished at cycle deadline",
					zap.String("network", t.Network),
					zap.Stringer("kind", t.Kind),
					zap.String("address", fullAddress(t.Address)),
				)
				continue
			}
			if r.Err != nil {
				st.Failed++
				c.metrics.TargetFailed(t.Network, failureKind(r.Err))
				c.log.Warn("target read failed",
					zap.String("network", t.Network),
					zap.Stringer("kind", t.Kind),
					zap.String("address", fullAddress(t.Address)),
					zap.Int("attempts", r.Attempts),
					zap.Error(r.Err),
				)
				continue
			}

			st.Succeeded++
			for _, sv := range r.Series {
				k := seriesKey(sv)
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				series = append(series, sv)
			}
		}
	}

	st.Series = len(series)
	return snapshot.New(at, series), st
}

// read performs one target's retried read and derives its series.
func (c *Collector) read(ctx context.Context, n Network, reader chain.Reader, t Target) Result {
	out := chain.Retry(ctx, c.retry, func(ctx context.Context) ([]snapshot.SeriesValue, error) {
		id := n.ChainID
		if id == 0 {
			v, err := reader.ChainID(ctx)
			if err != nil {
				return nil, err
			}
			id = v
		}

		switch t.Kind {
		case KindVault:
			st, err := reader.ReadVaultState(ctx, t.Address)
			if err != nil {
				return nil, err
			}
			info, err := reader.ReadDecimals(ctx, st.Token)
			if err != nil {
				return nil, err
			}
			return vaultSeries(id, t, st, info), nil

		case KindBridge:
			st, err := reader.ReadBridgeState(ctx, t.Address)
			if err != nil {
				return nil, err
			}
			return bridgeSeries(id, t, st), nil

		default:
			return nil, chain.Errorf("target", chain.ErrMalformed, "unknown kind %d", t.Kind)
		}
	})

	return Result{
		Target:   t,
		Series:   out.Value,
		Attempts: out.Attempts,
		Err:      out.Err,
	}
}

func failureKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "deadline"
	}
	return chain.KindOf(err).String()
}

// ---- PUBLISH ----

// RunCycle collects once and publishes the candidate.
// When every target failed the previous snapshot is kept unless
// PublishOnTotalFailure is set.
func (c *Collector) RunCycle(ctx context.Context) Stats {
	start := c.now()
	snap, st := c.Collect(ctx, start)
	elapsed := c.now().Sub(start)

	defer c.metrics.CycleDone(elapsed)

	if st.Targets > 0 && st.Succeeded == 0 && !c.publishOnTotal {
		c.metrics.SnapshotRetained()
		c.log.Warn("every target failed; keeping previous snapshot",
			zap.Int("targets", st.Targets),
			zap.Duration("elapsed", elapsed),
		)
		return st
	}

	if !c.store.Publish(snap) {
		c.log.Warn("candidate older than current snapshot; dropped",
			zap.Time("generated_at", snap.GeneratedAt),
		)
		return st
	}
	c.metrics.Published(snap.Len(), snap.GeneratedAt)

	if c.persister != nil {
		if err := c.persister.Save(ctx, snap); err != nil {
			c.log.Warn("persist snapshot failed", zap.Error(err))
		}
	}

	c.log.Info("cycle published",
		zap.Int("targets", st.Targets),
		zap.Int("succeeded", st.Succeeded),
		zap.Int("failed", st.Failed),
		zap.Int("unfinished", st.Unfinished),
		zap.Int("series", st.Series),
		zap.Duration("elapsed", elapsed),
	)
	return st
}
