// Package fetch downloads historical daily bars for the configured symbols
// from the Alpaca market-data API and persists them to the bar store.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"peaktrade/internal/config"
	"peaktrade/internal/domain"
	"peaktrade/internal/store"
	"peaktrade/internal/util"
)

const (
	maxRetries = 3
	retryDelay = time.Second
)

// Fetcher downloads daily OHLCV bars for a fixed symbol list.
type Fetcher struct {
	client     *marketdata.Client
	store      store.BarStore
	symbols    []string
	startDate  string
	maxWorkers int
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// New creates a Fetcher from the Alpaca credentials and fetch settings.
func New(alpaca config.Alpaca, cfg config.FetchConfig, s store.BarStore) *Fetcher {
	opts := marketdata.ClientOpts{
		APIKey:    alpaca.APIKey,
		APISecret: alpaca.APISecret,
	}
	if alpaca.DataURL != "" {
		opts.BaseURL = alpaca.DataURL
	}

	return &Fetcher{
		client:     marketdata.NewClient(opts),
		store:      s,
		symbols:    cfg.Symbols,
		startDate:  cfg.StartDate,
		maxWorkers: cfg.MaxWorkers,
		limiter:    util.NewRateLimiter(cfg.RateLimitPerMin),
		log:        slog.Default().With("component", "fetch"),
	}
}

// Run fetches bars for every configured symbol from the start date to now,
// writing each symbol's bars to the store as it completes. Symbols run
// concurrently across a bounded worker pool; a symbol that fails after
// retries is logged and skipped.
func (f *Fetcher) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	start, err := time.Parse("2006-01-02", f.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", f.startDate, err)
	}
	end := time.Now().UTC()

	f.log.Info("fetch started", "symbols", len(f.symbols), "start", f.startDate)
	runStart := time.Now()

	symbolCh := make(chan string, len(f.symbols))
	for _, sym := range f.symbols {
		symbolCh <- strings.ToUpper(sym)
	}
	close(symbolCh)

	var (
		wg      sync.WaitGroup
		fetched atomic.Int64
		failed  atomic.Int64
	)

	workers := min(f.maxWorkers, len(f.symbols))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symbolCh {
				if ctx.Err() != nil {
					return
				}
				n, err := f.fetchSymbol(ctx, sym, start, end)
				if err != nil {
					failed.Add(1)
					f.log.Error("symbol failed", "symbol", sym, "err", err)
					continue
				}
				fetched.Add(1)
				f.log.Info("symbol done", "symbol", sym, "bars", n)
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	f.log.Info("fetch complete",
		"fetched", fetched.Load(),
		"failed", failed.Load(),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	if fetched.Load() == 0 {
		return fmt.Errorf("all %d symbols failed", failed.Load())
	}
	return nil
}

// fetchSymbol downloads one symbol's daily bars with retries and writes them
// to the store. Returns the number of bars written.
func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) (int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, maxRetries, retryDelay, func() error {
		var err error
		alpacaBars, err = f.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("GetBars: %w", err)
	}
	if len(alpacaBars) == 0 {
		return 0, nil
	}

	bars := make([]domain.Bar, len(alpacaBars))
	for i, ab := range alpacaBars {
		bars[i] = domain.Bar{
			Symbol:     symbol,
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		}
	}
	if err := domain.ValidateBars(bars); err != nil {
		return 0, fmt.Errorf("validating bars: %w", err)
	}

	if err := f.store.WriteBars(ctx, domain.MarketUS, bars); err != nil {
		return 0, fmt.Errorf("writing bars: %w", err)
	}
	return len(bars), nil
}
