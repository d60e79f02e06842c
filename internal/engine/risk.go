package engine

// RiskConfig holds the numeric bounds the risk gate enforces per candidate
// entry. A zero value for any limit disables that check, except RiskPerTrade
// and StopLossPct which receive defaults.
type RiskConfig struct {
	RiskPerTrade     float64 // fraction of current equity risked per trade
	StopLossPct      float64 // stop distance as a fraction of entry price
	MaxPositionPct   float64 // max proposed notional as a fraction of current equity
	MinPositionValue float64 // reject entries below this notional
	MinStopDistance  float64 // reject entries with a stop closer than this (absolute price)
	MaxDrawdownPct   float64 // halt new entries once realized drawdown exceeds this
	MaxDailyLossPct  float64 // halt new entries once today's realized loss exceeds this
}

func (c RiskConfig) withDefaults() RiskConfig {
	q := c
	if q.RiskPerTrade == 0 {
		q.RiskPerTrade = 0.01
	}
	if q.StopLossPct == 0 {
		q.StopLossPct = 0.02
	}
	return q
}

// entryProposal is the snapshot of simulator state the gate evaluates. All
// fields are plain values so the gate stays stateless and order-independent.
type entryProposal struct {
	Notional     float64 // size × entry price
	StopDistance float64 // |entry − stop|
	Equity       float64 // realized equity at the decision bar
	Drawdown     float64 // realized drawdown of the curve so far, positive fraction
	DailyLossPct float64 // today's realized PnL as a fraction of equity (negative when losing)
}

// checkEntry applies the stateless risk checks to a proposed entry. It
// returns ok=false with the violated bound's name; a rejection is a normal
// reported outcome, never an error.
func checkEntry(cfg RiskConfig, p entryProposal) (ok bool, reason string) {
	if cfg.MaxPositionPct > 0 && p.Notional > cfg.MaxPositionPct*p.Equity {
		return false, "max_position_pct"
	}
	if cfg.MinPositionValue > 0 && p.Notional < cfg.MinPositionValue {
		return false, "min_position_value"
	}
	if cfg.MinStopDistance > 0 && p.StopDistance < cfg.MinStopDistance {
		return false, "min_stop_distance"
	}
	if cfg.MaxDrawdownPct > 0 && p.Drawdown > cfg.MaxDrawdownPct {
		return false, "max_drawdown_pct"
	}
	if cfg.MaxDailyLossPct > 0 && p.DailyLossPct < -cfg.MaxDailyLossPct {
		return false, "max_daily_loss_pct"
	}
	return true, ""
}
