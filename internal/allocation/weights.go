package allocation

import (
	"fmt"
	"math"
)

// volFloor guards the inverse-volatility division: a strategy that never
// traded during the preview has zero return variance and would otherwise
// absorb the entire portfolio.
const volFloor = 1e-9

// deriveWeights maps preview-period returns to a weight per component. The
// functions are pure and deterministic: identical preview returns always
// produce identical weights, and weights are computed exactly once per
// allocation run.
func deriveWeights(method Method, components []Component, previewReturns [][]float64, riskFree float64) (map[string]float64, error) {
	switch method {
	case MethodEqual:
		return equalWeights(components), nil
	case MethodRiskParity:
		return riskParityWeights(components, previewReturns), nil
	case MethodSharpeWeighted:
		return sharpeWeights(components, previewReturns, riskFree)
	default:
		return nil, fmt.Errorf("unknown allocation method %q", method)
	}
}

func equalWeights(components []Component) map[string]float64 {
	w := make(map[string]float64, len(components))
	for _, c := range components {
		w[c.Name] = 1 / float64(len(components))
	}
	return w
}

// riskParityWeights assigns wᵢ = (1/σᵢ) / Σ(1/σⱼ): lower observed preview
// volatility earns a higher weight.
func riskParityWeights(components []Component, previewReturns [][]float64) map[string]float64 {
	inv := make([]float64, len(components))
	var sum float64
	for i, rets := range previewReturns {
		sigma := stddev(rets)
		if sigma < volFloor {
			sigma = volFloor
		}
		inv[i] = 1 / sigma
		sum += inv[i]
	}

	w := make(map[string]float64, len(components))
	for i, c := range components {
		w[c.Name] = inv[i] / sum
	}
	return w
}

// sharpeWeights assigns weights proportional to max(0, mean(r−rf)/std(r)).
// When every score is non-positive there is no defensible allocation, which
// is a fatal configuration error rather than a silent equal-weight fallback.
func sharpeWeights(components []Component, previewReturns [][]float64, riskFree float64) (map[string]float64, error) {
	scores := make([]float64, len(components))
	var sum float64
	for i, rets := range previewReturns {
		sd := stddev(rets)
		if sd <= 0 {
			continue
		}
		score := (mean(rets) - riskFree) / sd
		if score > 0 {
			scores[i] = score
			sum += score
		}
	}
	if sum <= 0 {
		return nil, fmt.Errorf("cannot derive sharpe_weighted allocation: all Sharpe scores <= 0")
	}

	w := make(map[string]float64, len(components))
	for i, c := range components {
		w[c.Name] = scores[i] / sum
	}
	return w, nil
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
