package strategy

import (
	"testing"

	"peaktrade/internal/domain"
)

type fakeStrategy struct{ name string }

func (f fakeStrategy) Name() string { return f.name }
func (f fakeStrategy) GenerateSignals(bars []domain.Bar) ([]float64, error) {
	return make([]float64, len(bars)), nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeStrategy{name: "beta"})
	r.Register(fakeStrategy{name: "alpha"})

	if _, ok := r.Get("missing"); ok {
		t.Error("Get on unregistered name should report not found")
	}
	s, ok := r.Get("alpha")
	if !ok || s.Name() != "alpha" {
		t.Fatalf("Get(alpha) = %v, %v", s, ok)
	}

	names := r.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List() = %v, want sorted [alpha beta]", names)
	}
}

func TestRegistryReplaceOnSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeStrategy{name: "alpha"})
	r.Register(fakeStrategy{name: "alpha"})
	if got := len(r.List()); got != 1 {
		t.Errorf("duplicate registration should replace, have %d entries", got)
	}
}
