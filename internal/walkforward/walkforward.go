// Package walkforward selects strategy parameters on rolling training windows
// and validates them on the disjoint test window that follows each one. The
// test ranges never overlap, so every out-of-sample score is earned on data
// the selection never saw.
package walkforward

import (
	"fmt"
	"log/slog"
	"sync"

	"peaktrade/internal/domain"
	"peaktrade/internal/engine"
	"peaktrade/internal/strategy"
)

// Factory builds a strategy from one candidate parameter set.
type Factory func(Params) (strategy.Strategy, error)

// Config holds the optimizer parameters.
type Config struct {
	TrainWindow    int    // bars per training slice
	TestWindow     int    // bars per test slice; windows advance by this amount
	Metric         string // stats metric used for selection, default "sharpe"
	Ascending      bool   // true when a smaller metric value is better
	InitialCapital float64
	Engine         engine.Config
	OutputDir      string // artifact directory; empty disables the artifact
}

// Window is one disjoint train/test index pair over the bar sequence. Ranges
// are half-open: [TrainStart, TrainEnd) and [TestStart, TestEnd).
type Window struct {
	TrainStart, TrainEnd int
	TestStart, TestEnd   int
}

// WindowResult records the selection and out-of-sample outcome of one window.
type WindowResult struct {
	Window     Window
	Params     Params
	TrainScore float64
	TestScore  float64
	TestStats  engine.Stats
}

// candidateResult is the per-candidate training outcome: either a score or a
// skip reason, never a propagated error. Only an empty survivor set is fatal.
type candidateResult struct {
	params  Params
	score   float64
	skipped bool
	reason  string
}

// Run walks the bar sequence window by window. Each window trains every grid
// candidate on its train slice, selects the best by cfg.Metric, and runs the
// selection once on the test slice. The returned results are in window order.
func Run(bars []domain.Bar, factory Factory, base Params, grid Grid, cfg Config) ([]WindowResult, error) {
	if cfg.TrainWindow <= 0 || cfg.TestWindow <= 0 {
		return nil, fmt.Errorf("train window %d and test window %d must be positive", cfg.TrainWindow, cfg.TestWindow)
	}
	if cfg.Metric == "" {
		cfg.Metric = "sharpe"
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %.2f", cfg.InitialCapital)
	}

	candidates := grid.Expand(base)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty parameter grid")
	}

	windows := buildWindows(len(bars), cfg.TrainWindow, cfg.TestWindow)
	if len(windows) == 0 {
		return nil, fmt.Errorf("insufficient data for walk-forward: have %d bars, first window needs %d",
			len(bars), cfg.TrainWindow+cfg.TestWindow)
	}

	log := slog.Default().With("component", "walkforward", "metric", cfg.Metric)
	log.Info("walk-forward started", "windows", len(windows), "candidates", len(candidates))

	results := make([]WindowResult, 0, len(windows))
	for i, w := range windows {
		trainBars := bars[w.TrainStart:w.TrainEnd]
		outcomes := evaluateCandidates(trainBars, factory, candidates, cfg)

		best, err := selectBest(outcomes, cfg.Ascending, log)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}

		testStats, err := runCandidate(bars[w.TestStart:w.TestEnd], factory, best.params, cfg)
		if err != nil {
			return nil, fmt.Errorf("window %d: test run: %w", i, err)
		}
		testScore, ok := testStats.Metric(cfg.Metric)
		if !ok {
			return nil, fmt.Errorf("unknown optimization metric %q", cfg.Metric)
		}

		log.Info("window complete",
			"window", i,
			"params", best.params,
			"train_score", best.score,
			"test_score", testScore)

		results = append(results, WindowResult{
			Window:     w,
			Params:     best.params,
			TrainScore: best.score,
			TestScore:  testScore,
			TestStats:  testStats,
		})
	}

	// The artifact only adds information when there was a real search.
	if len(candidates) > 1 && cfg.OutputDir != "" {
		path, err := writeArtifact(cfg.OutputDir, cfg.Metric, results)
		if err != nil {
			return nil, fmt.Errorf("writing walk-forward artifact: %w", err)
		}
		log.Info("artifact written", "path", path)
	}

	return results, nil
}

// buildWindows lays out disjoint contiguous train/test pairs advancing by the
// test window. Generation stops when a full test slice no longer fits; any
// trailing partial remainder is dropped.
func buildWindows(total, train, test int) []Window {
	var windows []Window
	for start := 0; start+train+test <= total; start += test {
		windows = append(windows, Window{
			TrainStart: start,
			TrainEnd:   start + train,
			TestStart:  start + train,
			TestEnd:    start + train + test,
		})
	}
	return windows
}

// evaluateCandidates scores every candidate on the train slice concurrently.
// Each run owns private simulator state; outcomes land in indexed slots so the
// result order matches the deterministic expansion order.
func evaluateCandidates(trainBars []domain.Bar, factory Factory, candidates []Params, cfg Config) []candidateResult {
	outcomes := make([]candidateResult, len(candidates))

	var wg sync.WaitGroup
	for i, params := range candidates {
		i, params := i, params
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = candidateResult{params: params}
			stats, err := runCandidate(trainBars, factory, params, cfg)
			if err != nil {
				outcomes[i].skipped = true
				outcomes[i].reason = err.Error()
				return
			}
			score, ok := stats.Metric(cfg.Metric)
			if !ok {
				outcomes[i].skipped = true
				outcomes[i].reason = fmt.Sprintf("unknown optimization metric %q", cfg.Metric)
				return
			}
			outcomes[i].score = score
		}()
	}
	wg.Wait()

	return outcomes
}

// runCandidate builds the strategy for one parameter set and simulates it on
// the given slice.
func runCandidate(bars []domain.Bar, factory Factory, params Params, cfg Config) (engine.Stats, error) {
	strat, err := factory(params)
	if err != nil {
		return engine.Stats{}, fmt.Errorf("building strategy: %w", err)
	}
	signal, err := strat.GenerateSignals(bars)
	if err != nil {
		return engine.Stats{}, fmt.Errorf("generating signals: %w", err)
	}
	res, err := engine.Simulate(bars, signal, cfg.InitialCapital, cfg.Engine)
	if err != nil {
		return engine.Stats{}, err
	}
	return res.Stats, nil
}

// selectBest reduces the candidate outcomes to the single survivor with the
// best score. Ties keep the earlier candidate in expansion order.
func selectBest(outcomes []candidateResult, ascending bool, log *slog.Logger) (candidateResult, error) {
	var best candidateResult
	found := false
	for _, o := range outcomes {
		if o.skipped {
			log.Warn("candidate skipped", "params", o.params, "reason", o.reason)
			continue
		}
		if !found {
			best = o
			found = true
			continue
		}
		if (ascending && o.score < best.score) || (!ascending && o.score > best.score) {
			best = o
		}
	}
	if !found {
		return candidateResult{}, fmt.Errorf("no valid parameter candidates")
	}
	return best, nil
}
