package equity

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestResampleRowCounts(t *testing.T) {
	tests := []struct {
		window Window
		want   int
	}{
		{WindowDay, 25},
		{WindowWeek, 29},
		{WindowMonth, 31},
		{WindowAll, 91},
	}

	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			rows := Resample(nil, nil, []string{"alpha"}, tt.window, testNow)
			if len(rows) != tt.want {
				t.Errorf("expected %d rows for %s window, got %d", tt.want, tt.window, len(rows))
			}
		})
	}
}

func TestResampleGridBounds(t *testing.T) {
	rows := Resample(nil, nil, []string{"alpha"}, WindowDay, testNow)

	wantStart := testNow.Add(-24 * time.Hour)
	if !rows[0].Time.Equal(wantStart) {
		t.Errorf("expected first row at %v, got %v", wantStart, rows[0].Time)
	}
	if !rows[len(rows)-1].Time.Equal(testNow) {
		t.Errorf("expected last row at %v, got %v", testNow, rows[len(rows)-1].Time)
	}
}

func TestResampleTimestampsStrictlyAscending(t *testing.T) {
	for _, w := range []Window{WindowDay, WindowWeek, WindowMonth, WindowAll} {
		rows := Resample(nil, nil, []string{"alpha"}, w, testNow)
		for i := 1; i < len(rows); i++ {
			if !rows[i-1].Time.Before(rows[i].Time) {
				t.Fatalf("window %s: row %d (%v) not after row %d (%v)",
					w, i, rows[i].Time, i-1, rows[i-1].Time)
			}
		}
		if got, want := rows[1].Time.Sub(rows[0].Time), w.Interval(); got != want {
			t.Errorf("window %s: expected row spacing %v, got %v", w, want, got)
		}
	}
}

func TestResampleForwardFill(t *testing.T) {
	events := []Event{
		{Time: testNow.Add(-10 * time.Hour), Session: "alpha", Balance: 100},
		{Time: testNow.Add(-2 * time.Hour), Session: "alpha", Balance: 150},
	}
	sessions := map[string]Meta{
		"alpha": {ID: "alpha", Name: "Alpha", StartingBalance: 50},
	}

	rows := Resample(events, sessions, []string{"alpha"}, WindowDay, testNow)

	at := func(offset time.Duration) float64 {
		target := testNow.Add(offset)
		for _, row := range rows {
			if row.Time.Equal(target) {
				return row.Values["alpha"]
			}
		}
		t.Fatalf("no grid row at %v", target)
		return 0
	}

	if got := at(-20 * time.Hour); got != 50 {
		t.Errorf("before first event: expected starting balance 50, got %v", got)
	}
	if got := at(-10 * time.Hour); got != 100 {
		t.Errorf("at first event: expected 100, got %v", got)
	}
	if got := at(-5 * time.Hour); got != 100 {
		t.Errorf("between events: expected forward-filled 100, got %v", got)
	}
	if got := at(-2 * time.Hour); got != 150 {
		t.Errorf("at second event: expected 150, got %v", got)
	}
	if got := at(0); got != 150 {
		t.Errorf("at now: expected latest 150, got %v", got)
	}
}

func TestResampleDefaultStartingBalance(t *testing.T) {
	// No descriptor and no events: every cell carries the default balance.
	rows := Resample(nil, nil, []string{"ghost"}, WindowDay, testNow)
	for _, row := range rows {
		if got := row.Values["ghost"]; got != DefaultStartingBalance {
			t.Fatalf("expected default balance %v at %v, got %v", DefaultStartingBalance, row.Time, got)
		}
	}

	// A descriptor that never reported a starting balance behaves the same.
	sessions := map[string]Meta{"ghost": {ID: "ghost", Name: "Ghost"}}
	rows = Resample(nil, sessions, []string{"ghost"}, WindowDay, testNow)
	if got := rows[0].Values["ghost"]; got != DefaultStartingBalance {
		t.Errorf("expected default balance for zero StartingBalance, got %v", got)
	}
}

func TestResampleSessionCoverage(t *testing.T) {
	events := []Event{
		{Time: testNow.Add(-3 * time.Hour), Session: "alpha", Balance: 11000},
	}
	sessions := map[string]Meta{
		"alpha": {ID: "alpha", StartingBalance: 10000},
		"beta":  {ID: "beta", StartingBalance: 20000},
	}
	order := []string{"alpha", "beta", "gamma"}

	rows := Resample(events, sessions, order, WindowWeek, testNow)
	for _, row := range rows {
		if len(row.Values) != len(order) {
			t.Fatalf("row %v: expected %d values, got %d", row.Time, len(order), len(row.Values))
		}
		for _, id := range order {
			if _, ok := row.Values[id]; !ok {
				t.Fatalf("row %v: missing session %s", row.Time, id)
			}
		}
	}
}

func TestResampleTieBreak(t *testing.T) {
	at := testNow.Add(-6 * time.Hour)
	events := []Event{
		{Time: at, Session: "alpha", Balance: 100},
		{Time: at, Session: "alpha", Balance: 200},
	}

	rows := Resample(events, nil, []string{"alpha"}, WindowDay, testNow)
	if got := rows[len(rows)-1].Values["alpha"]; got != 200 {
		t.Errorf("expected later duplicate to win, got %v", got)
	}

	// Reversed input order flips the winner.
	events[0], events[1] = events[1], events[0]
	rows = Resample(events, nil, []string{"alpha"}, WindowDay, testNow)
	if got := rows[len(rows)-1].Values["alpha"]; got != 100 {
		t.Errorf("expected later duplicate to win after swap, got %v", got)
	}
}

func TestResampleUnsortedInput(t *testing.T) {
	events := []Event{
		{Time: testNow.Add(-2 * time.Hour), Session: "alpha", Balance: 150},
		{Time: testNow.Add(-10 * time.Hour), Session: "alpha", Balance: 100},
	}

	rows := Resample(events, nil, []string{"alpha"}, WindowDay, testNow)

	var atFiveAgo float64
	target := testNow.Add(-5 * time.Hour)
	for _, row := range rows {
		if row.Time.Equal(target) {
			atFiveAgo = row.Values["alpha"]
		}
	}
	if atFiveAgo != 100 {
		t.Errorf("expected 100 despite unsorted input, got %v", atFiveAgo)
	}
}

func TestResampleEventsOutsideWindowStillFill(t *testing.T) {
	// An event older than the lookback must still seed the whole column.
	events := []Event{
		{Time: testNow.Add(-40 * time.Hour), Session: "alpha", Balance: 12345},
	}

	rows := Resample(events, nil, []string{"alpha"}, WindowDay, testNow)
	for _, row := range rows {
		if row.Values["alpha"] != 12345 {
			t.Fatalf("expected pre-window event to fill row %v, got %v", row.Time, row.Values["alpha"])
		}
	}
}

func TestResampleFutureEventsIgnored(t *testing.T) {
	events := []Event{
		{Time: testNow.Add(time.Hour), Session: "alpha", Balance: 99999},
	}

	rows := Resample(events, nil, []string{"alpha"}, WindowDay, testNow)
	if got := rows[len(rows)-1].Values["alpha"]; got != DefaultStartingBalance {
		t.Errorf("expected future event to be ignored, got %v", got)
	}
}

func TestResampleEmptyOrder(t *testing.T) {
	rows := Resample(nil, nil, nil, WindowDay, testNow)
	if len(rows) != 25 {
		t.Fatalf("expected 25 rows with empty order, got %d", len(rows))
	}
	for _, row := range rows {
		if len(row.Values) != 0 {
			t.Fatalf("expected empty values at %v, got %v", row.Time, row.Values)
		}
	}
}

func TestResampleUnknownWindowDefaultsToDay(t *testing.T) {
	rows := Resample(nil, nil, []string{"alpha"}, Window("bogus"), testNow)
	if len(rows) != 25 {
		t.Errorf("expected day geometry for unknown window, got %d rows", len(rows))
	}
}

func TestResampleIdempotent(t *testing.T) {
	events := []Event{
		{Time: testNow.Add(-30 * time.Hour), Session: "alpha", Balance: 10100},
		{Time: testNow.Add(-4 * time.Hour), Session: "alpha", Balance: 10400},
		{Time: testNow.Add(-90 * time.Minute), Session: "beta", Balance: 9800},
	}
	sessions := map[string]Meta{
		"alpha": {ID: "alpha", StartingBalance: 10000},
		"beta":  {ID: "beta", StartingBalance: 10000},
	}
	order := []string{"alpha", "beta"}

	first := Resample(events, sessions, order, WindowWeek, testNow)
	second := Resample(events, sessions, order, WindowWeek, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical grids for identical inputs")
	}
}

func TestResampleWindowSwitch(t *testing.T) {
	// Switching windows over the same snapshot changes only the geometry;
	// the freshest value stays identical because both grids end at now.
	events := []Event{
		{Time: testNow.Add(-50 * time.Hour), Session: "alpha", Balance: 10500},
		{Time: testNow.Add(-1 * time.Hour), Session: "alpha", Balance: 11250},
	}

	day := Resample(events, nil, []string{"alpha"}, WindowDay, testNow)
	week := Resample(events, nil, []string{"alpha"}, WindowWeek, testNow)

	if len(day) != 25 || len(week) != 29 {
		t.Fatalf("expected 25/29 rows, got %d/%d", len(day), len(week))
	}
	dayLast := day[len(day)-1]
	weekLast := week[len(week)-1]
	if !dayLast.Time.Equal(weekLast.Time) {
		t.Fatalf("expected both grids to end at now, got %v and %v", dayLast.Time, weekLast.Time)
	}
	if dayLast.Values["alpha"] != weekLast.Values["alpha"] {
		t.Errorf("expected identical latest value across windows, got %v and %v",
			dayLast.Values["alpha"], weekLast.Values["alpha"])
	}
}

func TestYDomain(t *testing.T) {
	tests := []struct {
		name     string
		sessions []Meta
		wantMin  float64
		wantMax  float64
	}{
		{"no sessions", nil, 8000, 12000},
		{"first session at default", []Meta{{StartingBalance: 10000}}, 8000, 12000},
		{"first session custom", []Meta{{StartingBalance: 20000}, {StartingBalance: 5000}}, 16000, 24000},
		{"first session unreported", []Meta{{}, {StartingBalance: 50000}}, 8000, 12000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := YDomain(tt.sessions)
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.wantMin, tt.wantMax, gotMin, gotMax)
			}
		})
	}
}

func TestMetasInOrder(t *testing.T) {
	sessions := map[string]Meta{
		"alpha": {ID: "alpha", StartingBalance: 10000},
		"beta":  {ID: "beta", StartingBalance: 20000},
	}

	metas := MetasInOrder(sessions, []string{"beta", "missing", "alpha"})
	if len(metas) != 2 {
		t.Fatalf("expected 2 metas, got %d", len(metas))
	}
	if metas[0].ID != "beta" || metas[1].ID != "alpha" {
		t.Errorf("expected display order [beta alpha], got %+v", metas)
	}
}

type mockTracker struct {
	resamples int
	durations int
	points    int
}

func (m *mockTracker) ResamplesInc()                  { m.resamples++ }
func (m *mockTracker) ResampleDuration(time.Duration) { m.durations++ }
func (m *mockTracker) GridPoints(count int)           { m.points = count }

func TestResampleWithMetrics(t *testing.T) {
	tracker := &mockTracker{}

	ResampleWithMetrics(nil, nil, []string{"alpha"}, WindowMonth, testNow, tracker)
	if tracker.resamples != 1 {
		t.Errorf("expected 1 resample recorded, got %d", tracker.resamples)
	}
	if tracker.durations != 1 {
		t.Errorf("expected 1 duration observation, got %d", tracker.durations)
	}
	if tracker.points != 31 {
		t.Errorf("expected 31 grid points recorded, got %d", tracker.points)
	}

	// Nil tracker must be a safe no-op.
	rows := ResampleWithMetrics(nil, nil, []string{"alpha"}, WindowMonth, testNow, nil)
	if len(rows) != 31 {
		t.Errorf("expected 31 rows with nil tracker, got %d", len(rows))
	}
}
