// Package strategy defines the Strategy interface for signal generators and
// provides a Registry for managing multiple strategy implementations.
package strategy

import (
	"sort"

	"peaktrade/internal/domain"
)

// Strategy maps a price-bar sequence to a directional-exposure series. The
// returned slice is aligned 1:1 with bars and every value lies in [-1, 1]:
// positive for long exposure, negative for short, zero for flat.
//
// Implementations must be pure with respect to their inputs: the same bars
// always produce the same signal, and the bar slice is never mutated.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// GenerateSignals computes the desired exposure at each bar using only
	// bars up to and including that index.
	GenerateSignals(bars []domain.Bar) ([]float64, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
