package builtins

import (
	"fmt"

	"peaktrade/internal/domain"
	"peaktrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Momentum)(nil)

// Momentum holds a long exposure when the trailing return over a lookback
// window exceeds a threshold, a short exposure when it falls below the
// negative threshold, and is flat otherwise.
type Momentum struct {
	lookback  int
	threshold float64
}

// NewMomentum creates a Momentum strategy with the given lookback (bars) and
// absolute return threshold (e.g. 0.02 for 2%).
func NewMomentum(lookback int, threshold float64) (*Momentum, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("momentum: lookback must be >= 1, got %d", lookback)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("momentum: threshold must be >= 0, got %.6f", threshold)
	}
	return &Momentum{lookback: lookback, threshold: threshold}, nil
}

// NewMomentumFromParams builds a Momentum from a walk-forward parameter set
// with keys "lookback" and "threshold".
func NewMomentumFromParams(params map[string]float64) (strategy.Strategy, error) {
	return NewMomentum(int(params["lookback"]), params["threshold"])
}

// Name returns "momentum".
func (m *Momentum) Name() string {
	return "momentum"
}

// GenerateSignals computes the trailing-return exposure series.
func (m *Momentum) GenerateSignals(bars []domain.Bar) ([]float64, error) {
	signal := make([]float64, len(bars))
	for i := m.lookback; i < len(bars); i++ {
		base := bars[i-m.lookback].Close
		if base <= 0 {
			continue
		}
		ret := bars[i].Close/base - 1
		switch {
		case ret > m.threshold:
			signal[i] = 1
		case ret < -m.threshold:
			signal[i] = -1
		}
	}
	return signal, nil
}
