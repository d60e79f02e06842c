// Package report aggregates walk-forward window results into the
// cross-window robustness summary. It is a pure read-only reduction over
// finished results.
package report

import (
	"math"

	"peaktrade/internal/walkforward"
)

// Summary describes how the selected parameters held up out of sample across
// all walk-forward windows.
type Summary struct {
	Windows         int
	MeanTestScore   float64
	StdTestScore    float64
	ShareProfitable float64 // fraction of windows with positive test return
	MeanTestReturn  float64
	WorstTestScore  float64
	BestTestScore   float64
}

// Summarize reduces the ordered window results. An empty input yields a zero
// Summary.
func Summarize(windows []walkforward.WindowResult) Summary {
	if len(windows) == 0 {
		return Summary{}
	}

	s := Summary{
		Windows:        len(windows),
		WorstTestScore: math.Inf(1),
		BestTestScore:  math.Inf(-1),
	}

	var sum, sumReturn float64
	var profitable int
	for _, w := range windows {
		sum += w.TestScore
		sumReturn += w.TestStats.TotalReturn
		if w.TestStats.TotalReturn > 0 {
			profitable++
		}
		if w.TestScore < s.WorstTestScore {
			s.WorstTestScore = w.TestScore
		}
		if w.TestScore > s.BestTestScore {
			s.BestTestScore = w.TestScore
		}
	}

	n := float64(len(windows))
	s.MeanTestScore = sum / n
	s.MeanTestReturn = sumReturn / n
	s.ShareProfitable = float64(profitable) / n

	if len(windows) > 1 {
		var ss float64
		for _, w := range windows {
			d := w.TestScore - s.MeanTestScore
			ss += d * d
		}
		s.StdTestScore = math.Sqrt(ss / (n - 1))
	}

	return s
}
