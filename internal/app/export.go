package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"botboard/internal/botapi"
	"botboard/internal/dashboard"
	"botboard/internal/equity"
	"botboard/internal/poller"
)

// closedTradeRow is the CSV shape of one settled trade.
type closedTradeRow struct {
	Session    string  `csv:"session"`
	Symbol     string  `csv:"symbol"`
	Side       string  `csv:"side"`
	Qty        float64 `csv:"qty"`
	EntryPrice float64 `csv:"entry_price"`
	ExitPrice  float64 `csv:"exit_price"`
	Pnl        float64 `csv:"pnl"`
	OpenedAt   string  `csv:"opened_at"`
	ClosedAt   string  `csv:"closed_at"`
}

// Export fetches the bot's state once and writes the resampled equity grid
// as CSV and/or PNG, and optionally the closed trade history as CSV.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" && opts.TradesCSV == "" {
		return errors.New("at least one of --csv, --png or --trades-csv must be provided")
	}

	win := equity.DefaultWindow
	if opts.Window != "" {
		parsed, ok := equity.ParseWindow(opts.Window)
		if !ok {
			return fmt.Errorf("unknown window %q", opts.Window)
		}
		win = parsed
	}

	snap, err := poller.Fetch(ctx, a.newClient(), a.Logger)
	if err != nil {
		return err
	}

	grid := equity.Resample(snap.Events, snap.Metas, snap.Order, win, time.Now().UTC())

	if opts.CSVPath != "" {
		if err := writeGridCSV(opts.CSVPath, grid, snap.Order); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("rows", len(grid)).Msg("wrote equity grid CSV")
	}

	if opts.PNGPath != "" {
		metas := equity.MetasInOrder(snap.Metas, snap.Order)
		if err := writeGridPNG(opts.PNGPath, grid, metas, win); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Str("window", string(win)).Msg("wrote equity chart PNG")
	}

	if opts.TradesCSV != "" {
		if err := writeTradesCSV(opts.TradesCSV, snap.Trades); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.TradesCSV).Int("trades", len(snap.Trades)).Msg("wrote trade history CSV")
	}

	return nil
}

// writeGridCSV writes the grid with one column per session, in catalog order.
func writeGridCSV(path string, grid []equity.GridRow, order []string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"time"}, order...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range grid {
		record := make([]string, 0, len(order)+1)
		record = append(record, row.Time.UTC().Format(time.RFC3339))
		for _, id := range order {
			record = append(record, strconv.FormatFloat(row.Values[id], 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeGridPNG(path string, grid []equity.GridRow, metas []equity.Meta, win equity.Window) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return dashboard.RenderEquityChart(file, grid, metas, win)
}

func writeTradesCSV(path string, trades []botapi.ClosedTrade) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	rows := make([]closedTradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, closedTradeRow{
			Session:    t.Session,
			Symbol:     t.Symbol,
			Side:       t.Side,
			Qty:        t.Qty,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Pnl:        t.Pnl,
			OpenedAt:   t.OpenedAt.UTC().Format(time.RFC3339),
			ClosedAt:   t.ClosedAt.UTC().Format(time.RFC3339),
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.MarshalFile(&rows, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
