package allocation

import (
	"math"
	"strings"
	"testing"
	"time"

	"peaktrade/internal/domain"
	"peaktrade/internal/engine"
)

type stubStrategy struct {
	name string
	fn   func(bars []domain.Bar) []float64
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) GenerateSignals(bars []domain.Bar) ([]float64, error) {
	return s.fn(bars), nil
}

func longFrom(k int) func([]domain.Bar) []float64 {
	return func(bars []domain.Bar) []float64 {
		signal := make([]float64, len(bars))
		for i := k; i < len(bars); i++ {
			signal[i] = 1
		}
		return signal
	}
}

func hourlyBars(n int, start, drift float64) []domain.Bar {
	t0 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	px := start
	for i := range bars {
		next := px * (1 + drift)
		bars[i] = domain.Bar{
			Symbol:    "SYN",
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      px,
			High:      math.Max(px, next) * 1.002,
			Low:       math.Min(px, next) * 0.998,
			Close:     next,
			Volume:    1000,
		}
		px = next
	}
	return bars
}

func TestAllocateEqualIdenticalStrategies(t *testing.T) {
	bars := hourlyBars(300, 100, 0.0008)
	components := []Component{
		{Name: "s1", Strategy: stubStrategy{"s1", longFrom(20)}},
		{Name: "s2", Strategy: stubStrategy{"s2", longFrom(20)}},
	}

	res, err := Allocate(bars, components, Config{
		Method:       MethodEqual,
		TotalCapital: 100000,
		PreviewBars:  60,
		Engine:       engine.Config{BarMinutes: 60},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if res.Weights["s1"] != 0.5 || res.Weights["s2"] != 0.5 {
		t.Errorf("weights = %v, want 0.5 each", res.Weights)
	}

	var sum float64
	for _, w := range res.Weights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weight sum = %.12f, want 1", sum)
	}

	// Two identical strategies: the combined curve equals either component's.
	s1 := res.PerStrategy[0].Result.Equity
	if res.Combined.Len() != s1.Len() {
		t.Fatalf("combined length %d != component length %d", res.Combined.Len(), s1.Len())
	}
	for i := range res.Combined.Values {
		if math.Abs(res.Combined.Values[i]-s1.Values[i]) > 1e-9 {
			t.Fatalf("combined[%d] = %.6f, component = %.6f", i, res.Combined.Values[i], s1.Values[i])
		}
	}
}

func TestAllocateSingleWeightingPoint(t *testing.T) {
	bars := hourlyBars(300, 100, 0.0008)
	components := []Component{
		{Name: "early", Strategy: stubStrategy{"early", longFrom(10)}},
		{Name: "late", Strategy: stubStrategy{"late", longFrom(150)}},
	}

	res, err := Allocate(bars, components, Config{
		Method:       MethodEqual,
		TotalCapital: 50000,
		PreviewBars:  80,
		Engine:       engine.Config{BarMinutes: 60},
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// combined[t] must equal Σ wᵢ×equityᵢ[t] exactly.
	for i := range res.Combined.Values {
		var want float64
		for _, ps := range res.PerStrategy {
			want += ps.Weight * ps.Result.Equity.Values[i]
		}
		if res.Combined.Values[i] != want {
			t.Fatalf("combined[%d] = %v, want %v", i, res.Combined.Values[i], want)
		}
	}
}

func TestAllocateDeterministicAcrossRuns(t *testing.T) {
	// Full passes run concurrently; the result must still be identical
	// run to run.
	bars := hourlyBars(250, 100, 0.0005)
	components := []Component{
		{Name: "a", Strategy: stubStrategy{"a", longFrom(10)}},
		{Name: "b", Strategy: stubStrategy{"b", longFrom(60)}},
		{Name: "c", Strategy: stubStrategy{"c", longFrom(120)}},
	}
	cfg := Config{Method: MethodEqual, TotalCapital: 10000, PreviewBars: 50, Engine: engine.Config{BarMinutes: 60}}

	first, err := Allocate(bars, components, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Allocate(bars, components, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range first.Combined.Values {
		if first.Combined.Values[i] != second.Combined.Values[i] {
			t.Fatalf("combined curve diverges at %d", i)
		}
	}
}

func TestAllocatePreviewTooLong(t *testing.T) {
	bars := hourlyBars(50, 100, 0.001)
	components := []Component{{Name: "s1", Strategy: stubStrategy{"s1", longFrom(5)}}}

	_, err := Allocate(bars, components, Config{
		Method:       MethodEqual,
		TotalCapital: 10000,
		PreviewBars:  60,
		Engine:       engine.Config{BarMinutes: 60},
	})
	if err == nil {
		t.Fatal("preview longer than data must fail")
	}
	if !strings.Contains(err.Error(), "insufficient data for allocation preview") {
		t.Errorf("error %q should name the preview shortfall", err)
	}
}

func TestAllocateSharpeAllNegative(t *testing.T) {
	// Always long on a falling series: every preview close is a loss, so
	// every Sharpe score is non-positive.
	bars := hourlyBars(300, 100, -0.004)
	components := []Component{
		{Name: "s1", Strategy: stubStrategy{"s1", longFrom(2)}},
		{Name: "s2", Strategy: stubStrategy{"s2", longFrom(5)}},
	}

	_, err := Allocate(bars, components, Config{
		Method:       MethodSharpeWeighted,
		TotalCapital: 10000,
		PreviewBars:  150,
		Engine: engine.Config{
			BarMinutes: 60,
			Risk:       engine.RiskConfig{RiskPerTrade: 0.02, StopLossPct: 0.01},
		},
	})
	if err == nil {
		t.Fatal("all-negative Sharpe scores must be fatal")
	}
	if !strings.Contains(err.Error(), "Sharpe scores <= 0") {
		t.Errorf("error %q should contain %q", err, "Sharpe scores <= 0")
	}
}

func TestRiskParityMonotonicInVolatility(t *testing.T) {
	// Deterministic two-strategy fixture: calm has strictly lower return
	// volatility than wild, so it must receive the larger weight.
	components := []Component{{Name: "calm"}, {Name: "wild"}}
	previewReturns := [][]float64{
		{0.001, -0.001, 0.001, -0.001, 0.001, -0.001},
		{0.05, -0.04, 0.06, -0.05, 0.04, -0.06},
	}

	w := riskParityWeights(components, previewReturns)
	if w["calm"] <= w["wild"] {
		t.Fatalf("lower volatility must earn the higher weight: calm=%.6f wild=%.6f", w["calm"], w["wild"])
	}
	if math.Abs(w["calm"]+w["wild"]-1) > 1e-9 {
		t.Errorf("weights sum to %.12f, want 1", w["calm"]+w["wild"])
	}
}

func TestSharpeWeightsFavorHigherScore(t *testing.T) {
	components := []Component{{Name: "good"}, {Name: "bad"}}
	previewReturns := [][]float64{
		{0.01, 0.012, 0.009, 0.011, 0.01},    // strongly positive
		{0.001, -0.002, 0.002, -0.001, 0.00}, // near zero
	}

	w, err := sharpeWeights(components, previewReturns, 0)
	if err != nil {
		t.Fatalf("sharpeWeights: %v", err)
	}
	if w["good"] <= w["bad"] {
		t.Errorf("higher Sharpe must earn the higher weight: %v", w)
	}
}
