package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/common"
	"botboard/internal/snapshot"

	"github.com/rs/zerolog"
)

type fakeBackend struct {
	mu          sync.Mutex
	now         time.Time
	sessionsErr error
	equityErr   error

	entered chan struct{} // signaled when Sessions is entered
	block   chan struct{} // when non-nil, Sessions blocks until closed
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeBackend) Sessions(ctx context.Context) ([]botapi.Session, error) {
	f.mu.Lock()
	entered := f.entered
	block := f.block
	err := f.sessionsErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return []botapi.Session{
		{ID: "grid-btc", Name: "Grid BTC", InitialBalance: 10000, CurrentBalance: 10400},
		{Name: "Scalper ETH", InitialBalance: 5000, CurrentBalance: 5150},
	}, nil
}

func (f *fakeBackend) EquityHistory(ctx context.Context) ([]botapi.EquityRecord, error) {
	if f.equityErr != nil {
		return nil, f.equityErr
	}
	return []botapi.EquityRecord{
		{Time: f.now.Add(-time.Hour), Columns: map[string]float64{"GridBTC": 10100, "ScalperETH": 5050}},
		{Time: f.now.Add(-time.Minute), Columns: map[string]float64{"GridBTC": 10400}},
	}, nil
}

func (f *fakeBackend) OpenTrades(ctx context.Context) ([]botapi.Position, error) {
	return []botapi.Position{
		{Session: "Grid BTC", Symbol: "BTCUSDT", Side: "long", Qty: 0.01, EntryPrice: 64000},
	}, nil
}

func (f *fakeBackend) TradeHistory(ctx context.Context) ([]botapi.ClosedTrade, error) {
	return []botapi.ClosedTrade{
		{Session: "Grid BTC", Symbol: "BTCUSDT", Side: "long", Qty: 0.01, EntryPrice: 63000, ExitPrice: 64000, Pnl: 10},
	}, nil
}

func (f *fakeBackend) Backtests(ctx context.Context) ([]botapi.BacktestSummary, error) {
	return []botapi.BacktestSummary{
		{ID: "bt-1", Strategy: "grid", Symbol: "BTCUSDT", Status: "finished"},
	}, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	refreshes int
	errors    int
	durations int
	applied   []int
}

func (m *fakeMetrics) RefreshesInc() {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
}

func (m *fakeMetrics) RefreshErrorsInc() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *fakeMetrics) RefreshDurationObserve(seconds float64) {
	m.mu.Lock()
	m.durations++
	m.mu.Unlock()
}

func (m *fakeMetrics) SnapshotApplied(sessions int) {
	m.mu.Lock()
	m.applied = append(m.applied, sessions)
	m.mu.Unlock()
}

func (m *fakeMetrics) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}

type fakeCache struct {
	mu    sync.Mutex
	saved []*snapshot.Snapshot
	err   error
}

func (c *fakeCache) SaveSnapshot(snap *snapshot.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.saved = append(c.saved, snap)
	return nil
}

func (c *fakeCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saved)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestFetch(t *testing.T) {
	backend := newFakeBackend()

	snap, err := Fetch(context.Background(), backend, zerolog.Nop())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if snap.Stale {
		t.Error("Fresh snapshot must not be stale")
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt was not set")
	}

	wantOrder := []string{"grid-btc", "ScalperETH"}
	if len(snap.Order) != len(wantOrder) {
		t.Fatalf("Expected order %v, got %v", wantOrder, snap.Order)
	}
	for i, id := range wantOrder {
		if snap.Order[i] != id {
			t.Errorf("Order[%d]: expected %s, got %s", i, id, snap.Order[i])
		}
	}

	// Two columns in the first record plus one in the second.
	if len(snap.Events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(snap.Events))
	}
	if snap.Events[0].Session != "grid-btc" || snap.Events[0].Balance != 10100 {
		t.Errorf("Unexpected first event: %+v", snap.Events[0])
	}

	if snap.Metas["ScalperETH"].StartingBalance != 5000 {
		t.Errorf("Expected starting balance 5000, got %f", snap.Metas["ScalperETH"].StartingBalance)
	}
	if len(snap.Positions) != 1 || len(snap.Trades) != 1 || len(snap.Backtests) != 1 {
		t.Errorf("Trade data did not carry over: %d positions, %d trades, %d backtests",
			len(snap.Positions), len(snap.Trades), len(snap.Backtests))
	}
}

func TestFetch_ErrorWrapping(t *testing.T) {
	backend := newFakeBackend()
	backend.equityErr = errors.New("boom")

	_, err := Fetch(context.Background(), backend, zerolog.Nop())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "equity history") {
		t.Errorf("Expected error to name the failing call, got: %v", err)
	}
	if !errors.Is(err, backend.equityErr) {
		t.Errorf("Expected wrapped cause, got: %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(newFakeBackend(), snapshot.NewHolder(), Options{}, zerolog.Nop())

	if p.interval != common.DefaultPollInterval {
		t.Errorf("Expected default interval %v, got %v", common.DefaultPollInterval, p.interval)
	}
	if p.timeout != common.DefaultRESTTimeout {
		t.Errorf("Expected default timeout %v, got %v", common.DefaultRESTTimeout, p.timeout)
	}
}

func TestPoller_StartStop(t *testing.T) {
	p := New(newFakeBackend(), snapshot.NewHolder(), Options{Interval: time.Hour}, zerolog.Nop())

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Start(); err == nil {
		t.Error("Second Start should fail while running")
	}

	p.Stop()
	p.Stop() // Stop must be idempotent

	if err := p.Start(); err != nil {
		t.Errorf("Restart after Stop failed: %v", err)
	}
	p.Stop()
}

func TestPoller_PrimesImmediately(t *testing.T) {
	holder := snapshot.NewHolder()
	metrics := &fakeMetrics{}
	applied := make(chan *snapshot.Snapshot, 1)

	p := New(newFakeBackend(), holder, Options{
		Interval: time.Hour,
		Metrics:  metrics,
		OnApply: func(s *snapshot.Snapshot) {
			select {
			case applied <- s:
			default:
			}
		},
	}, zerolog.Nop())

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	select {
	case snap := <-applied:
		if len(snap.Sessions) != 2 {
			t.Errorf("Expected 2 sessions in applied snapshot, got %d", len(snap.Sessions))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Initial refresh did not apply within 2s")
	}

	if holder.Get() == nil {
		t.Error("Holder should carry the primed snapshot")
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.refreshes < 1 {
		t.Error("RefreshesInc was not called")
	}
	if metrics.durations < 1 {
		t.Error("RefreshDurationObserve was not called")
	}
	if len(metrics.applied) < 1 || metrics.applied[0] != 2 {
		t.Errorf("SnapshotApplied not recorded correctly: %v", metrics.applied)
	}
}

func TestPoller_ErrorKeepsHolderEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.sessionsErr = errors.New("connection refused")
	holder := snapshot.NewHolder()
	metrics := &fakeMetrics{}

	p := New(backend, holder, Options{Interval: time.Hour, Metrics: metrics}, zerolog.Nop())
	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool { return metrics.errorCount() >= 1 })

	if holder.Get() != nil {
		t.Error("Holder must stay empty when every refresh fails")
	}
}

func TestPoller_DiscardsRefreshAfterStop(t *testing.T) {
	backend := newFakeBackend()
	backend.entered = make(chan struct{}, 1)
	backend.block = make(chan struct{})
	holder := snapshot.NewHolder()
	applied := make(chan *snapshot.Snapshot, 1)

	p := New(backend, holder, Options{
		Interval: time.Hour,
		OnApply: func(s *snapshot.Snapshot) {
			select {
			case applied <- s:
			default:
			}
		},
	}, zerolog.Nop())

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	<-backend.entered    // initial refresh is now inside the backend call
	p.Stop()             // stop while the fetch is in flight
	close(backend.block) // let the fetch finish

	select {
	case <-applied:
		t.Fatal("Refresh that completed after Stop must be discarded")
	case <-time.After(200 * time.Millisecond):
	}

	if holder.Get() != nil {
		t.Error("Holder must stay empty after a discarded refresh")
	}
}

func TestPoller_CachesAppliedSnapshots(t *testing.T) {
	holder := snapshot.NewHolder()
	cache := &fakeCache{}
	applied := make(chan *snapshot.Snapshot, 1)

	p := New(newFakeBackend(), holder, Options{
		Interval: time.Hour,
		Cache:    cache,
		OnApply: func(s *snapshot.Snapshot) {
			select {
			case applied <- s:
			default:
			}
		},
	}, zerolog.Nop())

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("Initial refresh did not apply within 2s")
	}

	if cache.count() != 1 {
		t.Errorf("Expected 1 cached snapshot, got %d", cache.count())
	}
}

func TestPoller_CacheErrorDoesNotBlockApply(t *testing.T) {
	holder := snapshot.NewHolder()
	cache := &fakeCache{err: errors.New("disk full")}
	applied := make(chan *snapshot.Snapshot, 1)

	p := New(newFakeBackend(), holder, Options{
		Interval: time.Hour,
		Cache:    cache,
		OnApply: func(s *snapshot.Snapshot) {
			select {
			case applied <- s:
			default:
			}
		},
	}, zerolog.Nop())

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("Apply should proceed even when caching fails")
	}

	if holder.Get() == nil {
		t.Error("Holder should carry the snapshot despite the cache error")
	}
}
