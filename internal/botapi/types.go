package botapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Time decodes the two timestamp encodings the bot API emits, RFC3339
// strings and Unix milliseconds, and always marshals back as RFC3339.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	parsed, err := parseWireTime(data)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalCSV lets gocsv exports carry the same RFC3339 form as JSON.
func (t Time) MarshalCSV() (string, error) {
	return t.Format(time.RFC3339), nil
}

func (t *Time) UnmarshalCSV(s string) error {
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseWireTime(data []byte) (time.Time, error) {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}

	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return time.Time{}, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
		}
		return parsed, nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return time.Time{}, fmt.Errorf("parse time %s: %w", s, err)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// Session is one trading session as the bot reports it. ID may be empty on
// the wire; BuildCatalog assigns a stable one before anything downstream
// sees the session.
type Session struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	InitialBalance float64 `json:"initialBalance"`
	CurrentBalance float64 `json:"currentBalance"`
	TotalPnl       float64 `json:"totalPnl"`
	WinRate        float64 `json:"winRate"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	OpenTrades     int     `json:"openTrades"`
}

// EquityRecord is one row of the bot's wide-format balance history: a
// timestamp column plus one numeric column per session, keyed by the
// session's normalized display name.
type EquityRecord struct {
	Time    time.Time
	Columns map[string]float64
}

// UnmarshalJSON peels the "time" column off and keeps every numeric column
// as a balance. Non-numeric columns are skipped; a missing or unparseable
// timestamp leaves Time zero and the record is dropped later.
func (r *EquityRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Time = time.Time{}
	r.Columns = make(map[string]float64, len(raw))
	for key, value := range raw {
		if key == "time" {
			if parsed, err := parseWireTime(value); err == nil {
				r.Time = parsed
			}
			continue
		}
		var balance float64
		if err := json.Unmarshal(value, &balance); err != nil {
			continue
		}
		r.Columns[key] = balance
	}
	return nil
}

// Position is one open trade.
type Position struct {
	Session    string  `json:"session"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entryPrice"`
	MarkPrice  float64 `json:"markPrice"`
	Pnl        float64 `json:"pnl"`
	OpenedAt   Time    `json:"openedAt"`
}

// ClosedTrade is one settled trade from the bot's history.
type ClosedTrade struct {
	Session    string  `json:"session"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Qty        float64 `json:"qty"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	Pnl        float64 `json:"pnl"`
	OpenedAt   Time    `json:"openedAt"`
	ClosedAt   Time    `json:"closedAt"`
}

// BacktestSummary is one row of the bot's backtest run list.
type BacktestSummary struct {
	ID             string  `json:"id"`
	Strategy       string  `json:"strategy"`
	Symbol         string  `json:"symbol"`
	InitialBalance float64 `json:"initialBalance"`
	FinalBalance   float64 `json:"finalBalance"`
	WinRate        float64 `json:"winRate"`
	ProfitFactor   float64 `json:"profitFactor"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	Trades         int     `json:"trades"`
	Status         string  `json:"status"`
	StartedAt      Time    `json:"startedAt"`
	FinishedAt     Time    `json:"finishedAt"`
}

// EquityPoint is one step of a backtest's equity curve.
type EquityPoint struct {
	Timestamp Time    `json:"timestamp"`
	Balance   float64 `json:"balance"`
	Drawdown  float64 `json:"drawdown"`
}

// BacktestDetail is the full record of one backtest run.
type BacktestDetail struct {
	BacktestSummary
	EquityCurve []EquityPoint `json:"equityCurve"`
	Ledger      []ClosedTrade `json:"ledger"`
}

// BacktestRequest is a run submission. Schema tags drive HTML form decoding
// on the dashboard side; the JSON shape is what the bot expects.
type BacktestRequest struct {
	ID             string  `json:"id,omitempty" schema:"-"`
	Strategy       string  `json:"strategy" schema:"strategy"`
	Symbol         string  `json:"symbol" schema:"symbol"`
	From           string  `json:"from,omitempty" schema:"from"`
	To             string  `json:"to,omitempty" schema:"to"`
	InitialBalance float64 `json:"initialBalance,omitempty" schema:"initialBalance"`
	Leverage       int     `json:"leverage,omitempty" schema:"leverage"`
}

const dateLayout = "2006-01-02"

// Validate checks a submission before it is proxied to the bot.
func (r *BacktestRequest) Validate() error {
	if strings.TrimSpace(r.Strategy) == "" {
		return fmt.Errorf("strategy is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}

	var from, to time.Time
	var err error
	if r.From != "" {
		if from, err = time.Parse(dateLayout, r.From); err != nil {
			return fmt.Errorf("invalid from date %q: %w", r.From, err)
		}
	}
	if r.To != "" {
		if to, err = time.Parse(dateLayout, r.To); err != nil {
			return fmt.Errorf("invalid to date %q: %w", r.To, err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("to date %s precedes from date %s", r.To, r.From)
	}

	if r.InitialBalance < 0 {
		return fmt.Errorf("initial balance must not be negative")
	}
	if r.Leverage < 0 || r.Leverage > 125 {
		return fmt.Errorf("leverage must be between 0 and 125, got %d", r.Leverage)
	}
	return nil
}

// BacktestAck is the bot's answer to a run submission.
type BacktestAck struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
