package cli

import (
	"github.com/spf13/cobra"

	"botboard/internal/app"
)

var (
	exportWindow    string
	exportCSVPath   string
	exportPNGPath   string
	exportTradesCSV string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the equity grid as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Window:    exportWindow,
			CSVPath:   exportCSVPath,
			PNGPath:   exportPNGPath,
			TradesCSV: exportTradesCSV,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportWindow, "window", "", "Resample window: day, week, month or all (defaults to day)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write equity grid CSV")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write equity chart PNG")
	exportCmd.Flags().StringVar(&exportTradesCSV, "trades-csv", "", "Path to write closed trade history CSV")
}
