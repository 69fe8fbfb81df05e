package botapi

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/rs/zerolog"

	"botboard/internal/equity"
)

// NormalizeName strips all whitespace from a session's display name. The
// bot keys its wide equity history columns by exactly this form.
func NormalizeName(name string) string {
	normalized := make([]rune, 0, len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		normalized = append(normalized, r)
	}
	return string(normalized)
}

// Catalog resolves the bot's session list into stable internal IDs and maps
// wide history columns back onto those IDs. Display names stay free to
// change or collide; everything downstream keys on the ID.
type Catalog struct {
	sessions []Session
	order    []string
	metas    map[string]equity.Meta
	byColumn map[string][]string
}

// BuildCatalog assigns each session an ID: the bot-reported one when
// present, otherwise the normalized display name. Collisions get a numeric
// suffix and a warning; the colliding sessions then read the same history
// column, since the wire format cannot distinguish them either.
func BuildCatalog(sessions []Session, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		sessions: make([]Session, 0, len(sessions)),
		order:    make([]string, 0, len(sessions)),
		metas:    make(map[string]equity.Meta, len(sessions)),
		byColumn: make(map[string][]string, len(sessions)),
	}

	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		id := s.ID
		if id == "" {
			id = NormalizeName(s.Name)
		}
		if id == "" {
			logger.Warn().Msg("skipping session with no id and blank name")
			continue
		}

		base := id
		for n := 2; seen[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		if id != base {
			logger.Warn().
				Str("session", s.Name).
				Str("id", id).
				Msg("duplicate session key, disambiguated")
		}
		seen[id] = true

		s.ID = id
		c.sessions = append(c.sessions, s)
		c.order = append(c.order, id)
		c.metas[id] = equity.Meta{ID: id, Name: s.Name, StartingBalance: s.InitialBalance}

		column := NormalizeName(s.Name)
		c.byColumn[column] = append(c.byColumn[column], id)
	}

	return c
}

// Sessions returns the catalog's sessions with assigned IDs, in bot order.
func (c *Catalog) Sessions() []Session { return c.sessions }

// Order returns session IDs in the bot's display order.
func (c *Catalog) Order() []string { return c.order }

// Metas returns resampler metadata keyed by session ID.
func (c *Catalog) Metas() map[string]equity.Meta { return c.metas }

// Names returns display names keyed by session ID.
func (c *Catalog) Names() map[string]string {
	names := make(map[string]string, len(c.sessions))
	for _, s := range c.sessions {
		names[s.ID] = s.Name
	}
	return names
}

// Events flattens wide history records into per-session balance events,
// preserving record order so duplicate timestamps resolve the same way the
// bot emitted them. Columns that match no session and records without a
// usable timestamp are dropped.
func (c *Catalog) Events(records []EquityRecord) []equity.Event {
	events := make([]equity.Event, 0, len(records)*len(c.order))
	for _, rec := range records {
		if rec.Time.IsZero() {
			continue
		}
		for _, column := range sortedColumns(rec.Columns) {
			for _, id := range c.byColumn[column] {
				events = append(events, equity.Event{
					Time:    rec.Time,
					Session: id,
					Balance: rec.Columns[column],
				})
			}
		}
	}
	return events
}

// sortedColumns keeps event order deterministic within a record.
func sortedColumns(columns map[string]float64) []string {
	keys := make([]string, 0, len(columns))
	for key := range columns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
