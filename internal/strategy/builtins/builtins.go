package builtins

import (
	"fmt"
	"sort"

	"peaktrade/internal/strategy"
)

// constructor builds a strategy from a complete parameter set.
type constructor func(params map[string]float64) (strategy.Strategy, error)

var catalog = map[string]struct {
	defaults map[string]float64
	build    constructor
}{
	"sma-cross": {
		defaults: map[string]float64{"short": 20, "long": 50},
		build:    NewSMACrossFromParams,
	},
	"momentum": {
		defaults: map[string]float64{"lookback": 20, "threshold": 0.02},
		build:    NewMomentumFromParams,
	},
}

// Names lists the built-in strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultParams returns a copy of the default parameter set for the named
// strategy.
func DefaultParams(name string) (map[string]float64, bool) {
	entry, ok := catalog[name]
	if !ok {
		return nil, false
	}
	params := make(map[string]float64, len(entry.defaults))
	for k, v := range entry.defaults {
		params[k] = v
	}
	return params, true
}

// Build constructs the named strategy. Params override the defaults; missing
// keys fall back to them.
func Build(name string, params map[string]float64) (strategy.Strategy, error) {
	entry, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, Names())
	}
	merged, _ := DefaultParams(name)
	for k, v := range params {
		merged[k] = v
	}
	return entry.build(merged)
}
