package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"botboard/internal/app"
)

var (
	tradesClosed bool
	tradesLimit  int
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Display open positions or closed trade history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tradesLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		opts := app.TradesOptions{
			Closed: tradesClosed,
			Limit:  tradesLimit,
		}

		return getApp().Trades(cmd.Context(), opts)
	},
}

func init() {
	tradesCmd.Flags().BoolVar(&tradesClosed, "closed", false, "Show closed trades instead of open positions")
	tradesCmd.Flags().IntVar(&tradesLimit, "limit", 20, "Number of closed trades to display, 0 for all")
}
