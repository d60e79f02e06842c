// Package allocation combines multiple strategies into a weighted portfolio
// using a two-pass, estimate-then-commit protocol: a short preview simulation
// per strategy yields the weights, a full simulation per strategy yields the
// curves, and the weights are applied to the curves exactly once.
package allocation

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"peaktrade/internal/domain"
	"peaktrade/internal/engine"
	"peaktrade/internal/strategy"
)

// Method selects how portfolio weights are derived from the preview pass.
type Method string

const (
	MethodEqual          Method = "equal"
	MethodRiskParity     Method = "risk_parity"
	MethodSharpeWeighted Method = "sharpe_weighted"
)

// weightTolerance bounds the acceptable deviation of the weight sum from 1.
const weightTolerance = 1e-9

// Component pairs a strategy with the identifier its weight is keyed by.
type Component struct {
	Name     string
	Strategy strategy.Strategy
}

// Config holds the allocation parameters.
type Config struct {
	Method       Method
	TotalCapital float64
	PreviewBars  int     // leading slice used only for weight estimation
	RiskFree     float64 // per-bar risk-free rate for sharpe_weighted
	Engine       engine.Config
}

// StrategyResult is the full-pass outcome for one component.
type StrategyResult struct {
	Name   string
	Weight float64
	Result *engine.Result
}

// Result is the output surface of one allocation run.
type Result struct {
	Weights     map[string]float64
	Combined    *engine.EquityCurve
	PerStrategy []StrategyResult
}

// Allocate runs the two-pass allocation over the bar sequence.
//
// Pass one simulates every component over the first PreviewBars bars with the
// full, unsplit capital; the preview curves exist only to derive weights and
// are discarded. Pass two simulates every component over the entire sequence,
// again with full capital — capital is never pre-scaled by weight. The
// combined curve is Σ wᵢ×equityᵢ, applied once after both passes complete.
func Allocate(bars []domain.Bar, components []Component, cfg Config) (*Result, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("no strategies to allocate")
	}
	if cfg.TotalCapital <= 0 {
		return nil, fmt.Errorf("total capital must be positive, got %.2f", cfg.TotalCapital)
	}
	if cfg.PreviewBars < 2 || cfg.PreviewBars > len(bars) {
		return nil, fmt.Errorf("insufficient data for allocation preview: have %d bars, preview needs %d",
			len(bars), cfg.PreviewBars)
	}

	log := slog.Default().With("component", "allocation", "method", cfg.Method)

	// Pass one: preview runs on the leading slice only.
	previews, err := runAll(bars[:cfg.PreviewBars], components, cfg)
	if err != nil {
		return nil, fmt.Errorf("preview pass: %w", err)
	}

	previewReturns := make([][]float64, len(previews))
	for i, res := range previews {
		previewReturns[i] = res.Equity.Returns()
	}
	weights, err := deriveWeights(cfg.Method, components, previewReturns, cfg.RiskFree)
	if err != nil {
		return nil, err
	}
	if err := checkWeightSum(weights); err != nil {
		return nil, err
	}
	log.Info("weights derived", "weights", weights, "preview_bars", cfg.PreviewBars)

	// Pass two: full-window runs, full capital each.
	fulls, err := runAll(bars, components, cfg)
	if err != nil {
		return nil, fmt.Errorf("full pass: %w", err)
	}

	perStrategy := make([]StrategyResult, len(components))
	curves := make([]*engine.EquityCurve, len(components))
	componentWeights := make([]float64, len(components))
	for i, c := range components {
		perStrategy[i] = StrategyResult{Name: c.Name, Weight: weights[c.Name], Result: fulls[i]}
		curves[i] = fulls[i].Equity
		componentWeights[i] = weights[c.Name]
	}

	combined, err := combineCurves(curves, componentWeights)
	if err != nil {
		return nil, err
	}

	return &Result{
		Weights:     weights,
		Combined:    combined,
		PerStrategy: perStrategy,
	}, nil
}

// runAll simulates every component over the given slice concurrently. Each
// run owns private trade and equity state; results are merged only after all
// goroutines finish, so the output is identical to a sequential loop.
func runAll(bars []domain.Bar, components []Component, cfg Config) ([]*engine.Result, error) {
	results := make([]*engine.Result, len(components))
	errs := make([]error, len(components))

	var wg sync.WaitGroup
	for i, c := range components {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			signal, err := c.Strategy.GenerateSignals(bars)
			if err != nil {
				errs[i] = fmt.Errorf("strategy %s: generating signals: %w", c.Name, err)
				return
			}
			res, err := engine.Simulate(bars, signal, cfg.TotalCapital, cfg.Engine)
			if err != nil {
				errs[i] = fmt.Errorf("strategy %s: %w", c.Name, err)
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// combineCurves applies the single weighting point: one weighted sum over
// already-finished curves, never a re-simulation.
func combineCurves(curves []*engine.EquityCurve, weights []float64) (*engine.EquityCurve, error) {
	n := curves[0].Len()
	for _, c := range curves[1:] {
		if c.Len() != n {
			return nil, fmt.Errorf("per-strategy equity curves disagree in length: %d vs %d", c.Len(), n)
		}
	}

	combined := &engine.EquityCurve{
		Timestamps: make([]time.Time, n),
		Values:     make([]float64, n),
	}
	copy(combined.Timestamps, curves[0].Timestamps)
	for t := 0; t < n; t++ {
		var v float64
		for i, c := range curves {
			v += weights[i] * c.Values[t]
		}
		combined.Values[t] = v
	}
	return combined, nil
}

func checkWeightSum(weights map[string]float64) error {
	var sum float64
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight %.6f for %s", w, name)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("allocation weights sum to %.12f, want 1.0", sum)
	}
	return nil
}
