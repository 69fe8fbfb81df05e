package dashboard

import (
	"fmt"
	"io"
	"time"

	"botboard/internal/botapi"
	"botboard/internal/equity"

	chart "github.com/wcharczuk/go-chart/v2"
)

// RenderEquityChart draws the resampled grid as a PNG line chart, one series
// per session. Values are clipped to the fixed axis domain so a runaway
// session cannot rescale the chart for everyone else.
func RenderEquityChart(w io.Writer, rows []equity.GridRow, metas []equity.Meta, win equity.Window) error {
	if len(rows) == 0 {
		return fmt.Errorf("no grid rows to draw")
	}
	if len(metas) == 0 {
		return fmt.Errorf("no sessions to draw")
	}

	yMin, yMax := equity.YDomain(metas)

	series := make([]chart.Series, 0, len(metas))
	for _, meta := range metas {
		name := meta.Name
		if name == "" {
			name = meta.ID
		}

		xs := make([]time.Time, 0, len(rows))
		ys := make([]float64, 0, len(rows))
		for _, row := range rows {
			v, ok := row.Values[meta.ID]
			if !ok {
				continue
			}
			xs = append(xs, row.Time)
			ys = append(ys, clamp(v, yMin, yMax))
		}

		series = append(series, chart.TimeSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Equity (%s)", win),
		Width:  1000,
		Height: 420,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Balance",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderBacktestChart draws one run's equity curve with the drawdown series
// on the secondary axis.
func RenderBacktestChart(w io.Writer, detail *botapi.BacktestDetail) error {
	if detail == nil || len(detail.EquityCurve) < 2 {
		return fmt.Errorf("not enough equity points to draw")
	}

	xs := make([]time.Time, 0, len(detail.EquityCurve))
	balances := make([]float64, 0, len(detail.EquityCurve))
	drawdowns := make([]float64, 0, len(detail.EquityCurve))
	hasDrawdown := false
	for _, point := range detail.EquityCurve {
		xs = append(xs, point.Timestamp.Time)
		balances = append(balances, point.Balance)
		drawdowns = append(drawdowns, point.Drawdown*100)
		if point.Drawdown > 0 {
			hasDrawdown = true
		}
	}

	minB, maxB := balances[0], balances[0]
	for _, b := range balances[1:] {
		if b < minB {
			minB = b
		}
		if b > maxB {
			maxB = b
		}
	}
	// A flat curve would collapse the axis range to a point.
	if maxB-minB < 1e-9 {
		minB--
		maxB++
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Balance",
			XValues: xs,
			YValues: balances,
		},
	}
	if hasDrawdown {
		series = append(series, chart.TimeSeries{
			Name:    "Drawdown %",
			XValues: xs,
			YValues: drawdowns,
			YAxis:   chart.YAxisSecondary,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Backtest %s (%s)", detail.Strategy, detail.Symbol),
		Width:  1000,
		Height: 420,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Balance",
			Range: &chart.ContinuousRange{Min: minB, Max: maxB},
		},
		Series: series,
	}
	if hasDrawdown {
		graph.YAxisSecondary = chart.YAxis{Name: "Drawdown %"}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
