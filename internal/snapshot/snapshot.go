// Package snapshot holds the latest complete view of the bot's state as one
// immutable value. The poller writes it, every dashboard surface reads it.
package snapshot

import (
	"sync"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/equity"
)

// Snapshot is everything one refresh cycle learned from the bot. Once
// published through a Holder it must not be mutated; recomputation (window
// switches, chart renders) rereads the same value instead of refetching.
type Snapshot struct {
	FetchedAt time.Time                `json:"fetchedAt"`
	Stale     bool                     `json:"stale,omitempty"`
	Sessions  []botapi.Session         `json:"sessions"`
	Order     []string                 `json:"order"`
	Metas     map[string]equity.Meta   `json:"metas"`
	Events    []equity.Event           `json:"events"`
	Positions []botapi.Position        `json:"positions"`
	Trades    []botapi.ClosedTrade     `json:"trades"`
	Backtests []botapi.BacktestSummary `json:"backtests"`
}

// Names returns display names keyed by session ID.
func (s *Snapshot) Names() map[string]string {
	names := make(map[string]string, len(s.Sessions))
	for _, session := range s.Sessions {
		names[session.ID] = session.Name
	}
	return names
}

// Holder is the single shared slot for the most recent snapshot.
type Holder struct {
	mu  sync.RWMutex
	cur *Snapshot
}

func NewHolder() *Holder {
	return &Holder{}
}

// Set publishes a new snapshot.
func (h *Holder) Set(s *Snapshot) {
	h.mu.Lock()
	h.cur = s
	h.mu.Unlock()
}

// Get returns the latest snapshot, or nil before the first one lands.
func (h *Holder) Get() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}
