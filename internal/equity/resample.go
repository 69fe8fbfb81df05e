// Package equity turns the bot backend's sparse balance history into the
// dense, aligned series the dashboard plots.
//
// Balance events arrive irregularly and per session. Resample projects them
// onto a fixed time grid with forward-fill semantics, so every requested
// session has a value at every grid point regardless of how sparse or bursty
// its history is. Grid geometry is selected by a Window.
package equity

import "time"

// DefaultStartingBalance seeds a series before its first event when the
// session catalog carries no starting balance for it.
const DefaultStartingBalance = 10_000.0

// MetricsTracker receives resampler instrumentation. A nil tracker disables it.
type MetricsTracker interface {
	ResamplesInc()
	ResampleDuration(d time.Duration)
	GridPoints(count int)
}

// Event is one observed balance for one session at one instant. Input order
// is significant only to break exact timestamp ties: the later event wins.
type Event struct {
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	Balance float64   `json:"balance"`
}

// Meta is the per-session metadata resampling needs independent of events.
// A zero StartingBalance means the backend never reported one.
type Meta struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	StartingBalance float64 `json:"startingBalance"`
}

// GridRow is one output row: a grid timestamp plus the balance of every
// requested session at that instant.
type GridRow struct {
	Time   time.Time          `json:"time"`
	Values map[string]float64 `json:"values"`
}

// Resample projects events onto the window's time grid ending at now.
//
// The grid always spans [now-lookback, now] and always contains
// lookback/interval+1 rows. Each cell holds the session's most recent
// balance at or before the row's timestamp; rows before a session's first
// event hold its starting balance. Sessions named in order but absent from
// events or sessions still get a full column. The result depends only on
// the arguments, so recomputing with the same inputs is free of surprises.
func Resample(events []Event, sessions map[string]Meta, order []string, w Window, now time.Time) []GridRow {
	return ResampleWithMetrics(events, sessions, order, w, now, nil)
}

// ResampleWithMetrics is Resample with optional instrumentation.
func ResampleWithMetrics(events []Event, sessions map[string]Meta, order []string, w Window, now time.Time, m MetricsTracker) []GridRow {
	start := time.Now()

	p := w.policy()
	numPoints := int((p.Lookback+p.Interval-1)/p.Interval) + 1
	gridStart := now.Add(-p.Lookback)

	rows := make([]GridRow, numPoints)
	for i := range rows {
		t := gridStart.Add(time.Duration(i) * p.Interval)
		values := make(map[string]float64, len(order))
		for _, id := range order {
			if balance, ok := lastAtOrBefore(events, id, t); ok {
				values[id] = balance
			} else {
				values[id] = startingBalance(sessions, id)
			}
		}
		rows[i] = GridRow{Time: t, Values: values}
	}

	if m != nil {
		m.ResamplesInc()
		m.ResampleDuration(time.Since(start))
		m.GridPoints(numPoints)
	}
	return rows
}

// lastAtOrBefore scans for the session's most recent event at or before t.
// A plain linear scan is fine at this scale: tens of grid points and a
// handful of sessions. Equal timestamps resolve to the later input event,
// so re-sent balances overwrite earlier ones.
func lastAtOrBefore(events []Event, session string, t time.Time) (float64, bool) {
	var (
		balance float64
		at      time.Time
		found   bool
	)
	for _, ev := range events {
		if ev.Session != session || ev.Time.After(t) {
			continue
		}
		if !found || !ev.Time.Before(at) {
			balance, at, found = ev.Balance, ev.Time, true
		}
	}
	return balance, found
}

func startingBalance(sessions map[string]Meta, id string) float64 {
	if meta, ok := sessions[id]; ok && meta.StartingBalance != 0 {
		return meta.StartingBalance
	}
	return DefaultStartingBalance
}

// YDomain returns the chart's fixed Y axis range: 80% to 120% of the first
// displayed session's starting balance, or of the default balance when no
// session is shown. The band tracks only the first session; series that
// drift outside it are clipped by the renderer, not rescaled.
func YDomain(sessions []Meta) (min, max float64) {
	balance := DefaultStartingBalance
	if len(sessions) > 0 && sessions[0].StartingBalance != 0 {
		balance = sessions[0].StartingBalance
	}
	return balance * 0.8, balance * 1.2
}

// MetasInOrder resolves the ordered ID list against the session catalog,
// dropping IDs the catalog does not know.
func MetasInOrder(sessions map[string]Meta, order []string) []Meta {
	metas := make([]Meta, 0, len(order))
	for _, id := range order {
		if meta, ok := sessions[id]; ok {
			metas = append(metas, meta)
		}
	}
	return metas
}
