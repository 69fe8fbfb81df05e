package botapi

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Scalper BTC", "ScalperBTC"},
		{"  Grid  ETH  ", "GridETH"},
		{"plain", "plain"},
		{"tab\tand\nnewline", "tabandnewline"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildCatalogAssignsIDs(t *testing.T) {
	sessions := []Session{
		{ID: "s-1", Name: "Scalper BTC", InitialBalance: 10000},
		{Name: "Grid ETH", InitialBalance: 25000},
	}

	cat := BuildCatalog(sessions, zerolog.Nop())

	order := cat.Order()
	if len(order) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(order))
	}
	if order[0] != "s-1" {
		t.Errorf("expected bot-reported id to win, got %s", order[0])
	}
	if order[1] != "GridETH" {
		t.Errorf("expected normalized name fallback, got %s", order[1])
	}

	metas := cat.Metas()
	if metas["GridETH"].StartingBalance != 25000 {
		t.Errorf("expected meta starting balance 25000, got %v", metas["GridETH"].StartingBalance)
	}
	if metas["s-1"].Name != "Scalper BTC" {
		t.Errorf("expected meta display name preserved, got %s", metas["s-1"].Name)
	}

	names := cat.Names()
	if names["s-1"] != "Scalper BTC" || names["GridETH"] != "Grid ETH" {
		t.Errorf("unexpected names map: %v", names)
	}
}

func TestBuildCatalogDuplicateKeys(t *testing.T) {
	sessions := []Session{
		{Name: "Grid ETH"},
		{Name: "GridETH"},
		{Name: "Grid  ETH"},
	}

	cat := BuildCatalog(sessions, zerolog.Nop())

	order := cat.Order()
	want := []string{"GridETH", "GridETH-2", "GridETH-3"}
	if len(order) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(order))
	}
	for i, id := range want {
		if order[i] != id {
			t.Errorf("expected id %s at %d, got %s", id, i, order[i])
		}
	}
}

func TestBuildCatalogSkipsBlankSessions(t *testing.T) {
	sessions := []Session{
		{Name: "   "},
		{Name: "Real"},
	}

	cat := BuildCatalog(sessions, zerolog.Nop())
	if len(cat.Order()) != 1 || cat.Order()[0] != "Real" {
		t.Errorf("expected blank session to be skipped, got %v", cat.Order())
	}
}

func TestCatalogEvents(t *testing.T) {
	sessions := []Session{
		{ID: "s-1", Name: "Scalper BTC"},
		{Name: "Grid ETH"},
	}
	cat := BuildCatalog(sessions, zerolog.Nop())

	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	records := []EquityRecord{
		{
			Time: at,
			Columns: map[string]float64{
				"ScalperBTC": 10100,
				"GridETH":    9900,
				"Unknown":    1,
			},
		},
		{
			// No usable timestamp: dropped entirely.
			Columns: map[string]float64{"ScalperBTC": 10200},
		},
		{
			Time:    at.Add(time.Hour),
			Columns: map[string]float64{"GridETH": 9950},
		},
	}

	events := cat.Events(records)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}

	bySession := map[string][]float64{}
	for _, ev := range events {
		bySession[ev.Session] = append(bySession[ev.Session], ev.Balance)
	}
	if got := bySession["s-1"]; len(got) != 1 || got[0] != 10100 {
		t.Errorf("expected s-1 balances [10100], got %v", got)
	}
	if got := bySession["GridETH"]; len(got) != 2 || got[0] != 9900 || got[1] != 9950 {
		t.Errorf("expected GridETH balances [9900 9950], got %v", got)
	}
	if _, ok := bySession["Unknown"]; ok {
		t.Error("expected unknown column to be dropped")
	}
}

func TestCatalogEventsDuplicateColumn(t *testing.T) {
	// Two sessions that normalize to the same column both read it.
	sessions := []Session{
		{Name: "Grid ETH"},
		{Name: "GridETH"},
	}
	cat := BuildCatalog(sessions, zerolog.Nop())

	records := []EquityRecord{
		{
			Time:    time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			Columns: map[string]float64{"GridETH": 12345},
		},
	}

	events := cat.Events(records)
	if len(events) != 2 {
		t.Fatalf("expected both duplicates to receive the event, got %d", len(events))
	}
	seen := map[string]bool{}
	for _, ev := range events {
		if ev.Balance != 12345 {
			t.Errorf("expected balance 12345, got %v", ev.Balance)
		}
		seen[ev.Session] = true
	}
	if !seen["GridETH"] || !seen["GridETH-2"] {
		t.Errorf("expected events for both ids, got %v", seen)
	}
}
