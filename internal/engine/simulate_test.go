package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"peaktrade/internal/domain"
)

// hourlyBars builds n synthetic hourly candles starting at price start with a
// constant per-bar drift (e.g. 0.001 for +0.1%/bar).
func hourlyBars(n int, start, drift float64) []domain.Bar {
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	px := start
	for i := range bars {
		next := px * (1 + drift)
		high := math.Max(px, next) * 1.002
		low := math.Min(px, next) * 0.998
		bars[i] = domain.Bar{
			Symbol:    "SYN",
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      px,
			High:      high,
			Low:       low,
			Close:     next,
			Volume:    1000,
		}
		px = next
	}
	return bars
}

// longFrom returns a signal that requests full long exposure from bar k on.
func longFrom(n, k int) []float64 {
	signal := make([]float64, n)
	for i := k; i < n; i++ {
		signal[i] = 1
	}
	return signal
}

func TestSimulateCurveShape(t *testing.T) {
	bars := hourlyBars(200, 100, 0.001)
	signal := longFrom(len(bars), 50)

	res, err := Simulate(bars, signal, 10000, Config{BarMinutes: 60})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if got, want := res.Equity.Len(), len(bars)+1; got != want {
		t.Errorf("equity curve length = %d, want %d", got, want)
	}
	if res.Equity.Values[0] != 10000 {
		t.Errorf("initial equity = %.2f, want 10000", res.Equity.Values[0])
	}
	if len(res.Equity.Timestamps) != res.Equity.Len() {
		t.Errorf("timestamps length %d != values length %d", len(res.Equity.Timestamps), res.Equity.Len())
	}
	if !res.Equity.Timestamps[0].Before(bars[0].Timestamp) {
		t.Error("initial equity point should precede the first bar")
	}
}

func TestSimulateAlwaysLongSingleTrade(t *testing.T) {
	// 200 synthetic hourly candles, always long from bar 50 with a 2% stop:
	// exactly one trade, closed either by stop or end-of-data.
	bars := hourlyBars(200, 100, 0.001)
	signal := longFrom(len(bars), 50)

	res, err := Simulate(bars, signal, 10000, Config{
		BarMinutes: 60,
		Risk:       RiskConfig{RiskPerTrade: 0.01, StopLossPct: 0.02},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if res.Stats.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1", res.Stats.TotalTrades)
	}
	trade := res.Trades[0]
	if trade.ExitReason != ExitStopLoss && trade.ExitReason != ExitEndOfData {
		t.Errorf("exit reason = %q, want stop_loss or end_of_data", trade.ExitReason)
	}
	if trade.ExitReason == ExitEndOfData && trade.ExitPrice != bars[len(bars)-1].Close {
		t.Errorf("end-of-data exit price = %.4f, want final close %.4f",
			trade.ExitPrice, bars[len(bars)-1].Close)
	}
	// Rising series: the trade survives to end-of-data and is profitable.
	if trade.PnL <= 0 {
		t.Errorf("expected profitable trade on a rising series, PnL = %.4f", trade.PnL)
	}
	if res.Equity.Final() != 10000+trade.PnL {
		t.Errorf("final equity %.4f != initial + PnL %.4f", res.Equity.Final(), 10000+trade.PnL)
	}
}

func TestSimulateStopLossFillsAtStop(t *testing.T) {
	bars := hourlyBars(120, 100, -0.003) // falling series forces the stop
	signal := longFrom(len(bars), 10)

	res, err := Simulate(bars, signal, 10000, Config{
		BarMinutes: 60,
		Risk:       RiskConfig{RiskPerTrade: 0.01, StopLossPct: 0.02},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}

	var sawStop bool
	for _, trade := range res.Trades {
		if trade.ExitTime.Before(trade.EntryTime) {
			t.Errorf("trade exit %s before entry %s", trade.ExitTime, trade.EntryTime)
		}
		if trade.ExitReason == ExitStopLoss {
			sawStop = true
			if trade.ExitPrice != trade.StopPrice {
				t.Errorf("stop-loss exit price %.4f != stop price %.4f", trade.ExitPrice, trade.StopPrice)
			}
			if trade.PnL >= 0 {
				t.Errorf("stopped long should lose, PnL = %.4f", trade.PnL)
			}
		}
	}
	if !sawStop {
		t.Error("falling series should trigger at least one stop-loss exit")
	}
}

func TestSimulateShortSide(t *testing.T) {
	bars := hourlyBars(120, 100, -0.002)
	signal := make([]float64, len(bars))
	for i := 20; i < len(bars); i++ {
		signal[i] = -1
	}

	res, err := Simulate(bars, signal, 10000, Config{BarMinutes: 60})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected a short trade")
	}
	trade := res.Trades[0]
	if trade.Side != SideShort {
		t.Fatalf("side = %q, want short", trade.Side)
	}
	if trade.StopPrice <= trade.EntryPrice {
		t.Errorf("short stop %.4f should sit above entry %.4f", trade.StopPrice, trade.EntryPrice)
	}
	if trade.ExitReason == ExitEndOfData && trade.PnL <= 0 {
		t.Errorf("short on a falling series should profit, PnL = %.4f", trade.PnL)
	}
}

func TestSimulateIdempotent(t *testing.T) {
	bars := hourlyBars(250, 100, 0.0005)
	signal := make([]float64, len(bars))
	for i := range signal {
		switch {
		case i%37 < 12:
			signal[i] = 1
		case i%37 < 20:
			signal[i] = -0.5
		}
	}
	cfg := Config{BarMinutes: 60, Risk: RiskConfig{RiskPerTrade: 0.02, StopLossPct: 0.03}}

	a, err := Simulate(bars, signal, 25000, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Simulate(bars, signal, 25000, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(a.Equity.Values) != len(b.Equity.Values) {
		t.Fatalf("curve lengths differ: %d vs %d", len(a.Equity.Values), len(b.Equity.Values))
	}
	for i := range a.Equity.Values {
		if a.Equity.Values[i] != b.Equity.Values[i] {
			t.Fatalf("equity diverges at %d: %v vs %v", i, a.Equity.Values[i], b.Equity.Values[i])
		}
	}
	if a.Stats != b.Stats {
		t.Errorf("stats differ between identical runs: %+v vs %+v", a.Stats, b.Stats)
	}
}

func TestSimulateSignalMismatchFatal(t *testing.T) {
	bars := hourlyBars(50, 100, 0.001)
	_, err := Simulate(bars, make([]float64, 49), 10000, Config{})
	if err == nil {
		t.Fatal("mismatched signal length must be fatal")
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Errorf("error %q should name the mismatch", err)
	}
}

func TestSimulateRiskGateBlocksWithoutError(t *testing.T) {
	bars := hourlyBars(100, 100, 0.001)
	signal := longFrom(len(bars), 10)

	res, err := Simulate(bars, signal, 10000, Config{
		BarMinutes: 60,
		Risk: RiskConfig{
			RiskPerTrade:     0.01,
			StopLossPct:      0.02,
			MinPositionValue: 1e12, // every proposal is below this
		},
	})
	if err != nil {
		t.Fatalf("rejections must not error: %v", err)
	}
	if res.Stats.TotalTrades != 0 {
		t.Errorf("expected no trades, got %d", res.Stats.TotalTrades)
	}
	if res.Blocked == 0 {
		t.Error("expected blocked-trade counter to increment")
	}
	for _, v := range res.Equity.Values {
		if v != 10000 {
			t.Fatalf("equity must stay flat when every entry is blocked, saw %.2f", v)
		}
	}
}

func TestSimulateEquityMarkedOnCloseOnly(t *testing.T) {
	// Equity must not move while the position is open: the curve changes only
	// at close events, a deliberate simplification of the engine.
	bars := hourlyBars(100, 100, 0.001)
	signal := longFrom(len(bars), 30)

	res, err := Simulate(bars, signal, 10000, Config{BarMinutes: 60})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.Stats.TotalTrades != 1 || res.Trades[0].ExitReason != ExitEndOfData {
		t.Fatalf("fixture should hold one trade to end-of-data, got %+v", res.Trades)
	}
	// All points except the last equal the initial capital.
	for i := 0; i < res.Equity.Len()-1; i++ {
		if res.Equity.Values[i] != 10000 {
			t.Fatalf("equity moved at point %d while position open: %.4f", i, res.Equity.Values[i])
		}
	}
	if res.Equity.Final() == 10000 {
		t.Error("final point should reflect the realized close")
	}
}
