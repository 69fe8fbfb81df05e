package equity

import (
	"strings"
	"time"
)

// Window selects how far back the balance grid reaches and how fine it is.
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// DefaultWindow is the selection every chart surface starts on.
const DefaultWindow = WindowDay

// windowPolicy fixes the lookback span and grid interval for one window.
type windowPolicy struct {
	Lookback time.Duration
	Interval time.Duration
}

// The pairs are compatibility constants for downstream chart consumers:
// day yields 25 grid rows, week 29, month 31 and all 91.
var windowPolicies = map[Window]windowPolicy{
	WindowDay:   {Lookback: 24 * time.Hour, Interval: time.Hour},
	WindowWeek:  {Lookback: 168 * time.Hour, Interval: 6 * time.Hour},
	WindowMonth: {Lookback: 720 * time.Hour, Interval: 24 * time.Hour},
	WindowAll:   {Lookback: 2160 * time.Hour, Interval: 24 * time.Hour},
}

// policy returns the grid geometry, falling back to the default window so
// the resampler stays total on unknown values.
func (w Window) policy() windowPolicy {
	if p, ok := windowPolicies[w]; ok {
		return p
	}
	return windowPolicies[DefaultWindow]
}

// Valid reports whether w is one of the four selectable windows.
func (w Window) Valid() bool {
	_, ok := windowPolicies[w]
	return ok
}

// Lookback returns how far back the window reaches from "now".
func (w Window) Lookback() time.Duration { return w.policy().Lookback }

// Interval returns the spacing between adjacent grid rows.
func (w Window) Interval() time.Duration { return w.policy().Interval }

// ParseWindow maps a request parameter to a Window. The boolean reports
// whether the input named a known window; on failure the default is returned.
func ParseWindow(s string) (Window, bool) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	if w.Valid() {
		return w, true
	}
	return DefaultWindow, false
}
