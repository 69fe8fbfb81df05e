package app

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"botboard/internal/poller"
)

// Sessions fetches the live session catalog once and prints it.
func (a *App) Sessions(ctx context.Context) error {
	snap, err := poller.Fetch(ctx, a.newClient(), a.Logger)
	if err != nil {
		return err
	}
	if len(snap.Sessions) == 0 {
		fmt.Fprintln(os.Stdout, "no sessions found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Balance", "PnL", "Win Rate", "Drawdown", "Open"})
	for _, s := range snap.Sessions {
		table.Append([]string{
			s.ID,
			s.Name,
			fmt.Sprintf("%.2f", s.CurrentBalance),
			fmt.Sprintf("%+.2f", s.TotalPnl),
			fmt.Sprintf("%.1f%%", s.WinRate*100),
			fmt.Sprintf("%.1f%%", s.MaxDrawdown*100),
			strconv.Itoa(s.OpenTrades),
		})
	}
	table.Render()
	return nil
}
