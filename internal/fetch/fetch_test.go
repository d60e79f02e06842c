package fetch

import (
	"context"
	"strings"
	"testing"

	"peaktrade/internal/config"
	"peaktrade/internal/store"
)

func TestRunNoSymbols(t *testing.T) {
	f := New(config.Alpaca{}, config.FetchConfig{
		StartDate:       "2020-01-01",
		MaxWorkers:      2,
		RateLimitPerMin: 200,
	}, store.NewParquetStore(t.TempDir()))

	err := f.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no symbols") {
		t.Fatalf("err = %v, want no symbols configured", err)
	}
}

func TestRunBadStartDate(t *testing.T) {
	f := New(config.Alpaca{}, config.FetchConfig{
		Symbols:         []string{"AAPL"},
		StartDate:       "01/02/2020",
		MaxWorkers:      2,
		RateLimitPerMin: 200,
	}, store.NewParquetStore(t.TempDir()))

	err := f.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "parsing start date") {
		t.Fatalf("err = %v, want start date parse error", err)
	}
}
