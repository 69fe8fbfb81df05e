package equity

import "github.com/montanaflynn/stats"

// Summary condenses one session's sampled series for table display.
type Summary struct {
	Session   string  `json:"session"`
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	ChangePct float64 `json:"changePct"`
}

// Summarize reduces grid rows to one line per requested session. Rows are
// expected to come from Resample, where every session has a value in every
// row; sessions with no sampled values yield a zero summary.
func Summarize(rows []GridRow, order []string) []Summary {
	summaries := make([]Summary, 0, len(order))
	for _, id := range order {
		series := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v, ok := row.Values[id]; ok {
				series = append(series, v)
			}
		}
		if len(series) == 0 {
			summaries = append(summaries, Summary{Session: id})
			continue
		}

		first := series[0]
		last := series[len(series)-1]
		minV, _ := stats.Min(series)
		maxV, _ := stats.Max(series)
		mean, _ := stats.Mean(series)

		change := 0.0
		if first != 0 {
			change = (last - first) / first * 100
		}

		summaries = append(summaries, Summary{
			Session:   id,
			First:     first,
			Last:      last,
			Min:       minV,
			Max:       maxV,
			Mean:      mean,
			ChangePct: change,
		})
	}
	return summaries
}
