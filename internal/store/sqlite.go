package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements the append-only run registry backed by a SQLite
// database. Records are only ever inserted; there is no update or delete path.
type SQLiteStore struct {
	db *sql.DB
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	params     TEXT NOT NULL,
	metrics    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the runs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// AppendRun inserts a new run record. A missing ID is assigned a generated
// UUID, a zero CreatedAt is stamped with the current time. The record itself
// is not mutated.
func (s *SQLiteStore) AppendRun(ctx context.Context, rec *RunRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	params, err := encodeMetricMap(rec.Params)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}
	metrics, err := encodeMetricMap(rec.Metrics)
	if err != nil {
		return "", fmt.Errorf("encoding metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, symbol, strategy, created_at, params, metrics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Kind, rec.Symbol, rec.Strategy, createdAt.Format(time.RFC3339Nano), params, metrics)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", id, err)
	}
	return id, nil
}

// GetRun retrieves a single run by its identifier.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, symbol, strategy, created_at, params, metrics
		 FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, symbol, strategy, created_at, params, metrics
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// ---------------------------------------------------------------------------
// Row helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt, params, metrics string
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.Symbol, &rec.Strategy, &createdAt, &params, &metrics); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts

	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("decoding params: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &rec.Metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}
	return &rec, nil
}

// encodeMetricMap serializes a metric map, dropping non-finite values (an
// infinite profit factor, for example) that JSON cannot carry.
func encodeMetricMap(m map[string]float64) (string, error) {
	clean := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean[k] = v
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
