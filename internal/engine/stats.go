package engine

import "math"

// Stats summarizes a finished simulation. Every field is derived read-only
// from the equity curve and trade ledger after the bar loop completes.
type Stats struct {
	TotalReturn   float64
	CAGR          float64
	Sharpe        float64
	MaxDrawdown   float64
	WinRate       float64
	ProfitFactor  float64
	TotalTrades   int
	BlockedTrades int
	FinalEquity   float64
}

// Map exposes the statistics as metric name → value, the lookup surface used
// by the walk-forward optimizer and the run registry. Non-finite values (for
// example a profit factor with zero losing trades) are passed through; callers
// that serialize must filter them.
func (s Stats) Map() map[string]float64 {
	return map[string]float64{
		"total_return":   s.TotalReturn,
		"cagr":           s.CAGR,
		"sharpe":         s.Sharpe,
		"max_drawdown":   s.MaxDrawdown,
		"win_rate":       s.WinRate,
		"profit_factor":  s.ProfitFactor,
		"total_trades":   float64(s.TotalTrades),
		"blocked_trades": float64(s.BlockedTrades),
		"final_equity":   s.FinalEquity,
	}
}

// Metric returns the named metric value. Unknown names return ok=false.
func (s Stats) Metric(name string) (float64, bool) {
	v, ok := s.Map()[name]
	return v, ok
}

func computeStats(curve *EquityCurve, trades []Trade, blocked int, initialCapital float64, barMinutes int) Stats {
	final := curve.Final()
	stats := Stats{
		TotalReturn:   final/initialCapital - 1,
		MaxDrawdown:   curve.MaxDrawdown(),
		TotalTrades:   len(trades),
		BlockedTrades: blocked,
		FinalEquity:   final,
	}

	barsPerYear := (365.0 * 24 * 60) / float64(max(barMinutes, 1))
	years := float64(curve.Len()-1) / barsPerYear
	if years > 0 && final > 0 {
		stats.CAGR = math.Pow(final/initialCapital, 1/years) - 1
	}

	stats.Sharpe = sharpeRatio(curve.Returns(), 0, math.Sqrt(barsPerYear))

	var wins int
	var grossWin, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			grossWin += t.PnL
		} else {
			grossLoss += -t.PnL
		}
	}
	if len(trades) > 0 {
		stats.WinRate = float64(wins) / float64(len(trades))
	}
	switch {
	case grossLoss > 0:
		stats.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		stats.ProfitFactor = math.Inf(1)
	}

	return stats
}

// sharpeRatio computes the annualized Sharpe ratio of a per-bar return
// series against a per-bar risk-free rate. Degenerate series (fewer than two
// points or zero variance) score zero.
func sharpeRatio(rets []float64, riskFree, annualize float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	m := mean(rets) - riskFree
	sd := stddev(rets)
	if sd <= 0 {
		return 0
	}
	return m / sd * annualize
}

func mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var s float64
	for _, x := range a {
		s += x
	}
	return s / float64(len(a))
}

// stddev is the sample standard deviation.
func stddev(a []float64) float64 {
	if len(a) < 2 {
		return 0
	}
	m := mean(a)
	var s float64
	for _, x := range a {
		d := x - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(a)-1))
}
