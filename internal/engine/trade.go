package engine

import "time"

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ExitReason records why a trade was closed.
type ExitReason string

const (
	ExitStopLoss  ExitReason = "stop_loss"
	ExitSignal    ExitReason = "signal"
	ExitEndOfData ExitReason = "end_of_data"
)

// Trade is one entry-to-exit position lifecycle. It is created when the
// simulator opens a position, mutated only by the simulator that owns it, and
// frozen once closed.
type Trade struct {
	Side       Side
	EntryTime  time.Time
	EntryPrice float64
	Size       float64 // instrument units, always positive
	StopPrice  float64
	ExitTime   time.Time
	ExitPrice  float64
	PnL        float64
	ExitReason ExitReason
}

// Closed reports whether the trade has an exit recorded.
func (t *Trade) Closed() bool { return t.ExitReason != "" }

// close freezes the trade at the given exit and returns the realized PnL.
func (t *Trade) close(ts time.Time, price float64, reason ExitReason) float64 {
	t.ExitTime = ts
	t.ExitPrice = price
	t.ExitReason = reason
	if t.Side == SideLong {
		t.PnL = (price - t.EntryPrice) * t.Size
	} else {
		t.PnL = (t.EntryPrice - price) * t.Size
	}
	return t.PnL
}

// position is the tagged state of the single-trade state machine. The
// simulator holds at most one open trade: FLAT carries no trade, LONG and
// SHORT carry exactly one.
type position int

const (
	positionFlat position = iota
	positionLong
	positionShort
)
