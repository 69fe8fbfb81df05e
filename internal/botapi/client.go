// Package botapi is the REST client for the trading bot's control API.
// It only reads and proxies; all trading state lives in the bot.
package botapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	base string
	rest *resty.Client
}

// New builds a client for the bot API at base. An empty apiKey disables
// auth headers; the bot accepts that on trusted networks.
func New(base, apiKey string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	if apiKey != "" {
		r.SetAuthToken(apiKey)
	}
	return &Client{base, r}
}

// Sessions fetches the bot's session catalog.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	path := "/api/v1/sessions"

	var sessions []Session
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&sessions).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return sessions, nil
}

// EquityHistory fetches the wide-format balance history for all sessions.
func (c *Client) EquityHistory(ctx context.Context) ([]EquityRecord, error) {
	path := "/api/v1/equity/history"

	var records []EquityRecord
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&records).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return records, nil
}

// OpenTrades fetches currently open positions across all sessions.
func (c *Client) OpenTrades(ctx context.Context) ([]Position, error) {
	path := "/api/v1/trades/open"

	var positions []Position
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&positions).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d", resp.StatusCode())
	}

	return positions, nil
}

// TradeHistory fetches settled trades across all sessions.
func (c *Client) TradeHistory(ctx context.Context) ([]ClosedTrade, error) {
	path := "/api/v1/trades/history"

	var trades []ClosedTrade
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&trades).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d", resp.StatusCode())
	}

	return trades, nil
}

// Backtests fetches the list of known backtest runs.
func (c *Client) Backtests(ctx context.Context) ([]BacktestSummary, error) {
	path := "/api/v1/backtests"

	var runs []BacktestSummary
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&runs).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d", resp.StatusCode())
	}

	return runs, nil
}

// Backtest fetches one run with its full equity curve and trade ledger.
func (c *Client) Backtest(ctx context.Context, id string) (*BacktestDetail, error) {
	path := "/api/v1/backtests/" + id

	detail := &BacktestDetail{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(detail).
		Get(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("bot API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return detail, nil
}

// SubmitBacktest proxies a run submission to the bot.
func (c *Client) SubmitBacktest(ctx context.Context, req BacktestRequest) (*BacktestAck, error) {
	path := "/api/v1/backtests"

	ack := &BacktestAck{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(ack).
		Post(c.base + path)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("bot API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return ack, nil
}
