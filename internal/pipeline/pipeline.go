package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/observability"
	"github.com/couchcryptid/quakewatch/internal/store"
)

// DefaultInterval is the automatic refresh period.
const DefaultInterval = 5 * time.Minute

// Trigger names what started a refresh cycle.
type Trigger string

const (
	TriggerMount    Trigger = "mount"
	TriggerTimer    Trigger = "timer"
	TriggerSelector Trigger = "selector"
	TriggerSearch   Trigger = "search"
)

// BatchLoader publishes the features of an applied cycle downstream.
type BatchLoader interface {
	LoadBatch(ctx context.Context, cycleID string, features []domain.Feature) error
}

// freshFetcher is implemented by sources that can skip their cache.
type freshFetcher interface {
	FetchFresh(ctx context.Context, sel domain.Selector) (domain.Collection, error)
}

// Options configures a Pipeline. Zero values pick defaults.
type Options struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Initial  domain.Selector
}

type request struct {
	trigger Trigger
	sel     domain.Selector
}

type result struct {
	seq     uint64
	cycleID string
	req     request
	coll    domain.Collection
	err     error
}

// Pipeline owns refresh triggers and runs fetch cycles against the feed.
// Triggers are handled one at a time: a new trigger cancels the in-flight
// fetch, and only the latest cycle may update the store.
type Pipeline struct {
	source   domain.FeedSource
	store    *store.Store
	loader   BatchLoader
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration

	requests chan request
	ready    atomic.Bool

	mu       sync.Mutex
	selector domain.Selector
	subs     []chan store.Snapshot

	// Owned by the Run goroutine.
	seq      uint64
	cancel   context.CancelFunc
	mirrorWG sync.WaitGroup
}

// New creates a Pipeline. loader may be nil to disable mirroring.
func New(source domain.FeedSource, st *store.Store, loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Initial.Mode == "" {
		opts.Initial = domain.DefaultSelector()
	}
	return &Pipeline{
		source:   source,
		store:    st,
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		clock:    opts.Clock,
		interval: opts.Interval,
		requests: make(chan request, 8),
		selector: opts.Initial,
	}
}

// CheckReadiness returns nil once a fetch has been applied to the store.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no earthquake data has been fetched yet")
	}
	return nil
}

// Selector returns the selector of the most recent trigger.
func (p *Pipeline) Selector() domain.Selector {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selector
}

// Subscribe returns a channel that receives the store snapshot after every
// state change. The channel holds only the newest snapshot; a slow reader
// skips intermediate ones.
func (p *Pipeline) Subscribe() <-chan store.Snapshot {
	ch := make(chan store.Snapshot, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Trigger requests a refresh for sel. Invalid selectors are rejected here so
// the caller can report them without disturbing the current data.
func (p *Pipeline) Trigger(ctx context.Context, trigger Trigger, sel domain.Selector) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	select {
	case p.requests <- request{trigger: trigger, sel: sel}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh re-runs the current selector, bypassing the feed cache.
func (p *Pipeline) Refresh(ctx context.Context) error {
	return p.Trigger(ctx, TriggerSearch, p.Selector())
}

// Run performs the mount fetch and then serves triggers and the refresh
// timer until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval, "selector", p.Selector().Key())
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	results := make(chan result)
	p.start(ctx, request{trigger: TriggerMount, sel: p.Selector()}, results)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			if p.cancel != nil {
				p.cancel()
			}
			p.mirrorWG.Wait()
			return nil
		case req := <-p.requests:
			ticker.Reset(p.interval)
			p.start(ctx, req, results)
		case <-ticker.Chan():
			p.start(ctx, request{trigger: TriggerTimer, sel: p.Selector()}, results)
		case res := <-results:
			p.finish(ctx, res)
		}
	}
}

// start begins a new cycle, cancelling any fetch still in flight.
func (p *Pipeline) start(ctx context.Context, req request, results chan<- result) {
	if p.cancel != nil {
		p.cancel()
	}

	p.seq++
	seq := p.seq
	cycleID := uuid.NewString()

	p.mu.Lock()
	p.selector = req.sel
	p.mu.Unlock()

	p.store.Begin(seq, cycleID, req.sel)
	p.notify()
	p.logger.Debug("refresh cycle started", "cycle", seq, "cycle_id", cycleID, "trigger", req.trigger, "selector", req.sel.Key())

	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go func() {
		defer cancel()
		coll, err := p.fetch(fetchCtx, req)
		select {
		case results <- result{seq: seq, cycleID: cycleID, req: req, coll: coll, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (p *Pipeline) fetch(ctx context.Context, req request) (domain.Collection, error) {
	if ff, ok := p.source.(freshFetcher); ok && (req.trigger == TriggerTimer || req.trigger == TriggerSearch) {
		return ff.FetchFresh(ctx, req.sel)
	}
	return p.source.Fetch(ctx, req.sel)
}

// finish applies a cycle result if it belongs to the latest cycle.
func (p *Pipeline) finish(ctx context.Context, res result) {
	trigger := string(res.req.trigger)
	if res.seq != p.seq {
		p.metrics.RefreshCycles.WithLabelValues(trigger, "superseded").Inc()
		p.logger.Debug("dropping superseded cycle", "cycle", res.seq, "latest", p.seq)
		return
	}

	if res.err != nil {
		p.store.Fail(res.seq, res.err)
		p.metrics.RefreshCycles.WithLabelValues(trigger, "failed").Inc()
		p.logger.Warn("refresh failed, keeping previous data",
			"error", res.err,
			"trigger", trigger,
			"selector", res.req.sel.Key(),
			"cycle_id", res.cycleID,
		)
		p.notify()
		return
	}

	p.store.Replace(res.seq, res.coll)
	p.ready.Store(true)
	p.metrics.RefreshCycles.WithLabelValues(trigger, "applied").Inc()
	p.metrics.StoreFeatures.Set(float64(res.coll.Len()))
	p.logger.Info("collection updated",
		"features", res.coll.Len(),
		"trigger", trigger,
		"selector", res.req.sel.Key(),
		"cycle_id", res.cycleID,
	)
	p.notify()

	if p.loader != nil && res.coll.Len() > 0 {
		p.mirrorWG.Add(1)
		go func() {
			defer p.mirrorWG.Done()
			if err := p.loader.LoadBatch(ctx, res.cycleID, res.coll.Features); err != nil {
				if ctx.Err() != nil {
					return
				}
				p.metrics.MirrorErrors.Inc()
				p.logger.Warn("mirror publish failed", "error", err, "cycle_id", res.cycleID)
			}
		}()
	}
}

func (p *Pipeline) notify() {
	snap := p.store.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
