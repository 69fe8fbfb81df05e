// Package poller drives the dashboard's view of the bot. A fixed-interval
// scheduler fetches the bot API, assembles an immutable snapshot and
// publishes it to the shared holder; nothing downstream talks to the bot
// for read paths.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/common"
	"botboard/internal/snapshot"

	"github.com/rs/zerolog"
)

// Backend is the slice of the bot API the poller consumes.
type Backend interface {
	Sessions(ctx context.Context) ([]botapi.Session, error)
	EquityHistory(ctx context.Context) ([]botapi.EquityRecord, error)
	OpenTrades(ctx context.Context) ([]botapi.Position, error)
	TradeHistory(ctx context.Context) ([]botapi.ClosedTrade, error)
	Backtests(ctx context.Context) ([]botapi.BacktestSummary, error)
}

// Cache persists applied snapshots so a restart can serve stale data.
type Cache interface {
	SaveSnapshot(snap *snapshot.Snapshot) error
}

// Metrics receives poller instrumentation.
type Metrics interface {
	RefreshesInc()
	RefreshErrorsInc()
	RefreshDurationObserve(seconds float64)
	SnapshotApplied(sessions int)
}

// Options tune the refresh loop. Cache, Metrics and OnApply are optional;
// zero durations fall back to the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Cache    Cache
	Metrics  Metrics
	OnApply  func(*snapshot.Snapshot)
}

// Poller refreshes the snapshot holder from the bot API on a fixed interval.
// Every tick fires an independent refresh goroutine, so one slow cycle never
// delays the next; results that complete after Stop are discarded.
type Poller struct {
	backend Backend
	holder  *snapshot.Holder
	cache   Cache
	metrics Metrics
	onApply func(*snapshot.Snapshot)

	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

func New(backend Backend, holder *snapshot.Holder, opts Options, logger zerolog.Logger) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = common.DefaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = common.DefaultRESTTimeout
	}

	return &Poller{
		backend:  backend,
		holder:   holder,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		onApply:  opts.OnApply,
		interval: interval,
		timeout:  timeout,
		log:      logger,
	}
}

// Start launches the refresh loop plus one immediate refresh so the first
// page load does not wait a full interval.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller is already running")
	}

	p.stop = make(chan struct{})
	p.running = true

	go p.refresh()
	go p.loop(p.stop)

	p.log.Info().
		Dur("interval", p.interval).
		Dur("timeout", p.timeout).
		Msg("poller started")
	return nil
}

// Stop halts the loop. In-flight refreshes are not interrupted; whatever
// they produce is discarded at apply time.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stop)
	p.running = false
	p.log.Info().Msg("poller stopped")
}

func (p *Poller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go p.refresh()
		case <-stop:
			return
		}
	}
}

// refresh runs one fetch-and-apply cycle against its own timeout context.
// On failure the previous snapshot stays published.
func (p *Poller) refresh() {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.RefreshesInc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	snap, err := Fetch(ctx, p.backend, p.log)
	if p.metrics != nil {
		p.metrics.RefreshDurationObserve(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.RefreshErrorsInc()
		}
		p.log.Warn().Err(err).Msg("refresh failed, keeping previous snapshot")
		return
	}

	p.apply(snap)
}

// apply publishes the snapshot unless the poller stopped while the fetch
// was in flight. Overlapping refreshes race here and the last writer wins,
// which is fine: both carry fresher data than whatever they replace.
func (p *Poller) apply(snap *snapshot.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.log.Debug().Msg("discarding refresh that completed after stop")
		return
	}

	p.holder.Set(snap)
	if p.metrics != nil {
		p.metrics.SnapshotApplied(len(snap.Sessions))
	}
	if p.cache != nil {
		if err := p.cache.SaveSnapshot(snap); err != nil {
			p.log.Warn().Err(err).Msg("failed to cache snapshot")
		}
	}
	if p.onApply != nil {
		p.onApply(snap)
	}
}

// Fetch assembles one snapshot from the bot API. Any failed call fails the
// whole cycle so a snapshot never mixes data from different instants. The
// CLI uses it directly for one-shot commands.
func Fetch(ctx context.Context, backend Backend, logger zerolog.Logger) (*snapshot.Snapshot, error) {
	sessions, err := backend.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}
	records, err := backend.EquityHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("equity history: %w", err)
	}
	positions, err := backend.OpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	trades, err := backend.TradeHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("trade history: %w", err)
	}
	backtests, err := backend.Backtests(ctx)
	if err != nil {
		return nil, fmt.Errorf("backtests: %w", err)
	}

	catalog := botapi.BuildCatalog(sessions, logger)
	return &snapshot.Snapshot{
		FetchedAt: time.Now(),
		Sessions:  catalog.Sessions(),
		Order:     catalog.Order(),
		Metas:     catalog.Metas(),
		Events:    catalog.Events(records),
		Positions: positions,
		Trades:    trades,
		Backtests: backtests,
	}, nil
}
