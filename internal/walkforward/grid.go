package walkforward

import "sort"

// Params is one concrete parameter assignment handed to a strategy factory.
type Params map[string]float64

// Grid maps a parameter name to the candidate values for that axis. The
// cartesian product of all axes forms the candidate set.
type Grid map[string][]float64

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Expand produces every candidate parameter set: the base params overlaid with
// one value per grid axis. Axes are walked in sorted key order and values in
// declaration order, so the expansion order is deterministic. An empty grid or
// any empty axis expands to nothing.
func (g Grid) Expand(base Params) []Params {
	if len(g) == 0 {
		return nil
	}

	keys := make([]string, 0, len(g))
	for k := range g {
		if len(g[k]) == 0 {
			return nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	candidates := []Params{base.clone()}
	for _, key := range keys {
		next := make([]Params, 0, len(candidates)*len(g[key]))
		for _, c := range candidates {
			for _, v := range g[key] {
				p := c.clone()
				p[key] = v
				next = append(next, p)
			}
		}
		candidates = next
	}
	return candidates
}
