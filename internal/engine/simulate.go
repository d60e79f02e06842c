// Package engine implements the bar-by-bar simulation engine that turns a
// signal series into a position and trade lifecycle under risk constraints.
//
// The loop is strictly sequential: the decision at bar t may use only state
// accumulated from bars before t, so one run never looks ahead. Equity is
// marked only on trade close events — open positions are not marked to market
// between bars, which keeps the ledger auditable at the cost of drawdown
// visibility while a position is open.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"peaktrade/internal/domain"
)

// Config holds the non-risk simulation parameters.
type Config struct {
	BarMinutes int // bar period in minutes, used for annualization
	Risk       RiskConfig
}

func (c Config) withDefaults() Config {
	q := c
	if q.BarMinutes == 0 {
		q.BarMinutes = 24 * 60
	}
	q.Risk = q.Risk.withDefaults()
	return q
}

// Result is the full output surface of one simulation run. The engine owns
// the trade ledger and equity curve it produces; callers treat both as
// immutable.
type Result struct {
	Equity  *EquityCurve
	Trades  []Trade
	Stats   Stats
	Blocked int
}

// Simulate replays the signal series against the bar sequence starting from
// initialCapital. At each bar it applies, in fixed priority order: stop-loss
// exit, opposite-signal exit, then entry (sized by risk-per-trade over stop
// distance and vetted by the risk gate). Any position still open at
// end-of-data is force-closed at the final close.
//
// A mismatched signal length is fatal; a risk-gate rejection is a counted,
// non-error outcome.
func Simulate(bars []domain.Bar, signal []float64, initialCapital float64, cfg Config) (*Result, error) {
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validating bars: %w", err)
	}
	if err := domain.ValidateSignal(signal, bars); err != nil {
		return nil, err
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %.2f", initialCapital)
	}
	cfg = cfg.withDefaults()

	log := slog.Default().With("component", "engine", "symbol", bars[0].Symbol)
	barInterval := time.Duration(cfg.BarMinutes) * time.Minute
	curve := newEquityCurve(len(bars), bars[0].Timestamp.Add(-barInterval), initialCapital)

	var (
		equity  = initialCapital
		peak    = initialCapital
		pos     = positionFlat
		open    *Trade
		trades  []Trade
		blocked int

		dayKey    int
		dayPnLPct float64
	)

	closeOpen := func(ts time.Time, price float64, reason ExitReason) {
		before := equity
		equity += open.close(ts, price, reason)
		if before > 0 {
			dayPnLPct += (equity - before) / before
		}
		trades = append(trades, *open)
		open = nil
		pos = positionFlat
	}

	for i, bar := range bars {
		if key := dateKey(bar.Timestamp); key != dayKey {
			dayKey = key
			dayPnLPct = 0
		}

		// 1. Stop-loss has priority over every other transition. A gap
		// through the stop still fills at the stop price.
		if pos == positionLong && bar.Low <= open.StopPrice {
			closeOpen(bar.Timestamp, open.StopPrice, ExitStopLoss)
		} else if pos == positionShort && bar.High >= open.StopPrice {
			closeOpen(bar.Timestamp, open.StopPrice, ExitStopLoss)
		}

		// 2. Exit when the signal no longer requests the held direction.
		if pos == positionLong && signal[i] <= 0 {
			closeOpen(bar.Timestamp, bar.Close, ExitSignal)
		} else if pos == positionShort && signal[i] >= 0 {
			closeOpen(bar.Timestamp, bar.Close, ExitSignal)
		}

		// 3. Entry, only from FLAT. Size scales with signal strength.
		if pos == positionFlat && signal[i] != 0 {
			side := SideLong
			stop := bar.Close * (1 - cfg.Risk.StopLossPct)
			if signal[i] < 0 {
				side = SideShort
				stop = bar.Close * (1 + cfg.Risk.StopLossPct)
			}
			stopDistance := math.Abs(bar.Close - stop)
			if stopDistance > 0 {
				size := cfg.Risk.RiskPerTrade * equity / stopDistance * math.Abs(signal[i])
				proposal := entryProposal{
					Notional:     size * bar.Close,
					StopDistance: stopDistance,
					Equity:       equity,
					Drawdown:     drawdown(peak, equity),
					DailyLossPct: dayPnLPct,
				}
				if ok, reason := checkEntry(cfg.Risk, proposal); ok {
					open = &Trade{
						Side:       side,
						EntryTime:  bar.Timestamp,
						EntryPrice: bar.Close,
						Size:       size,
						StopPrice:  stop,
					}
					if side == SideLong {
						pos = positionLong
					} else {
						pos = positionShort
					}
				} else {
					blocked++
					log.Debug("entry blocked", "bar", i, "reason", reason, "notional", proposal.Notional)
				}
			}
		}

		// 4. One equity point per bar; the value moved only if a close
		// happened above.
		if equity > peak {
			peak = equity
		}
		curve.append(bar.Timestamp, equity)
	}

	// 5. Force-close any remaining position at the final bar's close.
	if open != nil {
		last := bars[len(bars)-1]
		closeOpen(last.Timestamp, last.Close, ExitEndOfData)
		curve.Values[curve.Len()-1] = equity
	}

	return &Result{
		Equity:  curve,
		Trades:  trades,
		Stats:   computeStats(curve, trades, blocked, initialCapital, cfg.BarMinutes),
		Blocked: blocked,
	}, nil
}

func dateKey(ts time.Time) int {
	y, m, d := ts.UTC().Date()
	return y*10000 + int(m)*100 + d
}

func drawdown(peak, equity float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (peak - equity) / peak
}
