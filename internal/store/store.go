// Package store defines the persistence interfaces for market data and run
// records: a Parquet-backed bar cache that feeds the simulation engine, and an
// append-only SQLite registry of finished evaluation runs.
package store

import (
	"context"
	"time"

	"peaktrade/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market.
	WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end],
	// ordered by timestamp.
	ReadBars(ctx context.Context, market domain.Market, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)
}

// RunRecord is one finished evaluation run. Records are immutable once
// appended; the registry supports no update or delete.
type RunRecord struct {
	ID        string // generated when empty on append
	Kind      string // "backtest", "allocate", or "walkforward"
	Symbol    string
	Strategy  string
	CreatedAt time.Time
	Params    map[string]float64
	Metrics   map[string]float64
}

// RunStore is the flat append-only run registry.
type RunStore interface {
	// AppendRun persists a new run record and returns its identifier.
	AppendRun(ctx context.Context, rec *RunRecord) (string, error)

	// GetRun retrieves a single run by its identifier.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
