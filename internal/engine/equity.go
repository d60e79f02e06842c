package engine

import "time"

// EquityCurve is the time-indexed account value produced by one simulation
// run: one entry per bar plus an initial value before the first bar. It is
// append-only during simulation and immutable afterwards.
type EquityCurve struct {
	Timestamps []time.Time
	Values     []float64
}

func newEquityCurve(capacity int, start time.Time, initial float64) *EquityCurve {
	c := &EquityCurve{
		Timestamps: make([]time.Time, 0, capacity+1),
		Values:     make([]float64, 0, capacity+1),
	}
	c.Timestamps = append(c.Timestamps, start)
	c.Values = append(c.Values, initial)
	return c
}

func (c *EquityCurve) append(ts time.Time, value float64) {
	c.Timestamps = append(c.Timestamps, ts)
	c.Values = append(c.Values, value)
}

// Len returns the number of points, including the initial value.
func (c *EquityCurve) Len() int { return len(c.Values) }

// Final returns the last account value.
func (c *EquityCurve) Final() float64 {
	return c.Values[len(c.Values)-1]
}

// Returns computes the per-bar simple returns of the curve (length Len()-1).
func (c *EquityCurve) Returns() []float64 {
	if c.Len() < 2 {
		return nil
	}
	rets := make([]float64, c.Len()-1)
	for i := 1; i < c.Len(); i++ {
		prev := c.Values[i-1]
		if prev != 0 {
			rets[i-1] = c.Values[i]/prev - 1
		}
	}
	return rets
}

// MaxDrawdown returns the largest peak-to-trough decline as a positive
// fraction of the peak.
func (c *EquityCurve) MaxDrawdown() float64 {
	var peak, maxDD float64
	for _, v := range c.Values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
