package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"botboard/internal/botapi"
	"botboard/internal/poller"
)

// Trades fetches the bot's trades once and prints either the open positions
// or the closed trade history.
func (a *App) Trades(ctx context.Context, opts TradesOptions) error {
	snap, err := poller.Fetch(ctx, a.newClient(), a.Logger)
	if err != nil {
		return err
	}

	if opts.Closed {
		printClosedTrades(snap.Trades, opts.Limit)
		return nil
	}
	printOpenPositions(snap.Positions)
	return nil
}

func printOpenPositions(positions []botapi.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(os.Stdout, "no open positions")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Opened", "Session", "Symbol", "Side", "Qty", "Entry", "Mark", "PnL"})
	for _, p := range positions {
		table.Append([]string{
			p.OpenedAt.UTC().Format(time.RFC3339),
			p.Session,
			p.Symbol,
			p.Side,
			fmt.Sprintf("%.4f", p.Qty),
			fmt.Sprintf("%.2f", p.EntryPrice),
			fmt.Sprintf("%.2f", p.MarkPrice),
			fmt.Sprintf("%+.2f", p.Pnl),
		})
	}
	table.Render()
}

func printClosedTrades(trades []botapi.ClosedTrade, limit int) {
	if len(trades) == 0 {
		fmt.Fprintln(os.Stdout, "no closed trades")
		return
	}
	// Same rule as the API: a limit keeps the newest entries.
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Closed", "Session", "Symbol", "Side", "Qty", "Entry", "Exit", "PnL"})
	for _, t := range trades {
		table.Append([]string{
			t.ClosedAt.UTC().Format(time.RFC3339),
			t.Session,
			t.Symbol,
			t.Side,
			fmt.Sprintf("%.4f", t.Qty),
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			fmt.Sprintf("%+.2f", t.Pnl),
		})
	}
	table.Render()
}
