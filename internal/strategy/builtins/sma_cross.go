// Package builtins provides built-in strategy implementations that ship with
// the peaktrade platform.
package builtins

import (
	"fmt"

	"peaktrade/internal/domain"
	"peaktrade/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It holds a
// long exposure while the short-period SMA is above the long-period SMA and a
// short exposure while it is below. During the warmup prefix, before the long
// SMA has enough history, the exposure is zero.
type SMACross struct {
	shortPeriod int
	longPeriod  int
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) (*SMACross, error) {
	if short < 1 || long < 2 || short >= long {
		return nil, fmt.Errorf("sma-cross: invalid periods short=%d long=%d", short, long)
	}
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
	}, nil
}

// NewSMACrossFromParams builds an SMACross from a walk-forward parameter set
// with keys "short" and "long".
func NewSMACrossFromParams(params map[string]float64) (strategy.Strategy, error) {
	return NewSMACross(int(params["short"]), int(params["long"]))
}

// Name returns "sma-cross".
func (s *SMACross) Name() string {
	return "sma-cross"
}

// GenerateSignals computes the crossover exposure series over closing prices.
func (s *SMACross) GenerateSignals(bars []domain.Bar) ([]float64, error) {
	signal := make([]float64, len(bars))

	var shortSum, longSum float64
	for i, b := range bars {
		shortSum += b.Close
		if i >= s.shortPeriod {
			shortSum -= bars[i-s.shortPeriod].Close
		}
		longSum += b.Close
		if i >= s.longPeriod {
			longSum -= bars[i-s.longPeriod].Close
		}

		if i < s.longPeriod-1 {
			continue // warmup: not enough history for the long SMA
		}
		shortSMA := shortSum / float64(s.shortPeriod)
		longSMA := longSum / float64(s.longPeriod)
		switch {
		case shortSMA > longSMA:
			signal[i] = 1
		case shortSMA < longSMA:
			signal[i] = -1
		}
	}
	return signal, nil
}
