// Package domain defines the shared market-data types used across the
// peaktrade platform: OHLCV bars, signal series, and the validation rules
// both must satisfy before a simulation may consume them.
package domain

import (
	"fmt"
	"time"
)

// Market identifies the market a symbol trades in.
type Market string

const (
	MarketUS     Market = "us"
	MarketCrypto Market = "crypto"
)

// Bar is a single OHLCV record at a fixed timestamp.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// ValidateBars checks the invariants a price-bar sequence must satisfy before
// simulation: non-empty, strictly increasing timestamps (no duplicates), and
// positive prices with High >= Low.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("empty bar sequence")
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: non-positive price", i)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high %.6f below low %.6f", i, b.High, b.Low)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s",
				i, b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// ValidateSignal checks that a signal series is aligned 1:1 with its bar
// sequence and every value lies in [-1, 1]. A mismatched length is a fatal
// configuration error for the caller.
func ValidateSignal(signal []float64, bars []Bar) error {
	if len(signal) != len(bars) {
		return fmt.Errorf("signal length %d does not match bars %d", len(signal), len(bars))
	}
	for i, v := range signal {
		if v < -1 || v > 1 {
			return fmt.Errorf("signal %d: value %.6f outside [-1, 1]", i, v)
		}
	}
	return nil
}
