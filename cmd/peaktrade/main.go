package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"peaktrade/internal/allocation"
	"peaktrade/internal/config"
	"peaktrade/internal/domain"
	"peaktrade/internal/engine"
	"peaktrade/internal/fetch"
	"peaktrade/internal/report"
	"peaktrade/internal/store"
	"peaktrade/internal/strategy"
	"peaktrade/internal/strategy/builtins"
	"peaktrade/internal/util"
	"peaktrade/internal/walkforward"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: peaktrade <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  backtest     Simulate one strategy over stored bars\n")
	fmt.Fprintf(os.Stderr, "  allocate     Combine strategies into a weighted portfolio\n")
	fmt.Fprintf(os.Stderr, "  walkforward  Optimize parameters on rolling train/test windows\n")
	fmt.Fprintf(os.Stderr, "  fetch        Download historical bars into the data store\n")
	fmt.Fprintf(os.Stderr, "  runs         List recent evaluation runs\n")
	fmt.Fprintf(os.Stderr, "  version      Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	if os.Args[1] == "version" {
		fmt.Printf("peaktrade %s\n", version)
		return
	}

	cfgPath := "config/peaktrade.yaml"
	if p := os.Getenv("PEAKTRADE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "backtest":
		err = runBacktest(ctx, cfg, os.Args[2:])
	case "allocate":
		err = runAllocate(ctx, cfg, os.Args[2:])
	case "walkforward":
		err = runWalkForward(ctx, cfg, os.Args[2:])
	case "fetch":
		err = fetch.New(cfg.Alpaca, cfg.Fetch, store.NewParquetStore(cfg.Storage.DataDir)).Run(ctx)
	case "runs":
		err = listRuns(ctx, cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func runBacktest(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	symbol := fs.String("symbol", cfg.Backtest.Symbol, "symbol to simulate")
	stratName := fs.String("strategy", cfg.Backtest.Strategy, "strategy name")
	start := fs.String("start", "2015-01-01", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD), default today")
	fs.Parse(args)

	bars, err := loadBars(ctx, cfg, *symbol, *start, *end)
	if err != nil {
		return err
	}

	strat, err := builtins.Build(*stratName, nil)
	if err != nil {
		return err
	}
	signal, err := strat.GenerateSignals(bars)
	if err != nil {
		return fmt.Errorf("generating signals: %w", err)
	}

	res, err := engine.Simulate(bars, signal, cfg.Backtest.InitialCapital, engineConfig(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("backtest %s / %s over %d bars\n", *symbol, strat.Name(), len(bars))
	printMetrics(res.Stats.Map())

	params, _ := builtins.DefaultParams(strat.Name())
	return recordRun(ctx, cfg, &store.RunRecord{
		Kind:     "backtest",
		Symbol:   *symbol,
		Strategy: strat.Name(),
		Params:   params,
		Metrics:  res.Stats.Map(),
	})
}

func runAllocate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	symbol := fs.String("symbol", cfg.Backtest.Symbol, "symbol to simulate")
	start := fs.String("start", "2015-01-01", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD), default today")
	fs.Parse(args)

	bars, err := loadBars(ctx, cfg, *symbol, *start, *end)
	if err != nil {
		return err
	}

	names := cfg.Allocation.Strategies
	if len(names) == 0 {
		names = builtins.Names()
	}
	components := make([]allocation.Component, len(names))
	for i, name := range names {
		strat, err := builtins.Build(name, nil)
		if err != nil {
			return err
		}
		components[i] = allocation.Component{Name: name, Strategy: strat}
	}

	previewBars := cfg.Allocation.PreviewBars
	if previewBars == 0 {
		previewBars = len(bars) / 4
	}
	res, err := allocation.Allocate(bars, components, allocation.Config{
		Method:       allocation.Method(cfg.Allocation.Method),
		TotalCapital: cfg.Allocation.TotalCapital,
		PreviewBars:  previewBars,
		RiskFree:     cfg.Allocation.RiskFreeRate,
		Engine:       engineConfig(cfg),
	})
	if err != nil {
		return err
	}

	fmt.Printf("allocation %s over %d bars (%s)\n", *symbol, len(bars), cfg.Allocation.Method)
	printMetrics(res.Weights)
	fmt.Printf("  %-16s %12.2f\n", "combined_equity", res.Combined.Final())
	for _, ps := range res.PerStrategy {
		fmt.Printf("  %-16s weight=%.4f final=%.2f trades=%d\n",
			ps.Name, ps.Weight, ps.Result.Equity.Final(), ps.Result.Stats.TotalTrades)
	}

	return recordRun(ctx, cfg, &store.RunRecord{
		Kind:     "allocate",
		Symbol:   *symbol,
		Strategy: "portfolio",
		Params:   res.Weights,
		Metrics: map[string]float64{
			"combined_final": res.Combined.Final(),
			"strategies":     float64(len(res.PerStrategy)),
		},
	})
}

func runWalkForward(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("walkforward", flag.ExitOnError)
	symbol := fs.String("symbol", cfg.Backtest.Symbol, "symbol to simulate")
	stratName := fs.String("strategy", cfg.Backtest.Strategy, "strategy name")
	start := fs.String("start", "2015-01-01", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD), default today")
	fs.Parse(args)

	bars, err := loadBars(ctx, cfg, *symbol, *start, *end)
	if err != nil {
		return err
	}

	name := *stratName
	factory := func(p walkforward.Params) (strategy.Strategy, error) {
		return builtins.Build(name, p)
	}

	base, ok := builtins.DefaultParams(name)
	if !ok {
		return fmt.Errorf("unknown strategy %q (have %v)", name, builtins.Names())
	}
	for k, v := range cfg.WalkForward.BaseParams {
		base[k] = v
	}

	windows, err := walkforward.Run(bars, factory, base, cfg.WalkForward.Grid, walkforward.Config{
		TrainWindow:    cfg.WalkForward.TrainWindow,
		TestWindow:     cfg.WalkForward.TestWindow,
		Metric:         cfg.WalkForward.Metric,
		Ascending:      cfg.WalkForward.Ascending,
		InitialCapital: cfg.Backtest.InitialCapital,
		Engine:         engineConfig(cfg),
		OutputDir:      cfg.Storage.OutputDir,
	})
	if err != nil {
		return err
	}

	summary := report.Summarize(windows)
	fmt.Printf("walk-forward %s / %s: %d windows, metric %s\n",
		*symbol, name, summary.Windows, cfg.WalkForward.Metric)
	for i, w := range windows {
		fmt.Printf("  window %2d  train=[%d,%d) test=[%d,%d)  train=%.4f test=%.4f  params=%v\n",
			i, w.Window.TrainStart, w.Window.TrainEnd, w.Window.TestStart, w.Window.TestEnd,
			w.TrainScore, w.TestScore, w.Params)
	}
	printMetrics(map[string]float64{
		"mean_test_score":  summary.MeanTestScore,
		"std_test_score":   summary.StdTestScore,
		"share_profitable": summary.ShareProfitable,
		"mean_test_return": summary.MeanTestReturn,
	})

	return recordRun(ctx, cfg, &store.RunRecord{
		Kind:     "walkforward",
		Symbol:   *symbol,
		Strategy: name,
		Params:   base,
		Metrics: map[string]float64{
			"windows":          float64(summary.Windows),
			"mean_test_score":  summary.MeanTestScore,
			"std_test_score":   summary.StdTestScore,
			"share_profitable": summary.ShareProfitable,
		},
	})
}

func listRuns(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	fs.Parse(args)

	registry, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening run registry: %w", err)
	}
	defer registry.Close()

	runs, err := registry.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %-11s %-6s %-10s %s\n",
			r.CreatedAt.Format(time.RFC3339), r.Kind, r.Symbol, r.Strategy, r.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func loadBars(ctx context.Context, cfg *config.Config, symbol, start, end string) ([]domain.Bar, error) {
	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", start, err)
	}
	endTime := time.Now().UTC()
	if end != "" {
		endTime, err = time.Parse("2006-01-02", end)
		if err != nil {
			return nil, fmt.Errorf("parsing end date %q: %w", end, err)
		}
	}

	bars, err := store.NewParquetStore(cfg.Storage.DataDir).ReadBars(ctx, domain.MarketUS, symbol, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("reading bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars stored for %s in [%s, %s] — run fetch first", symbol, start, end)
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validating bars: %w", err)
	}
	return bars, nil
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		BarMinutes: cfg.Backtest.BarMinutes,
		Risk: engine.RiskConfig{
			RiskPerTrade:     cfg.Risk.RiskPerTrade,
			StopLossPct:      cfg.Risk.StopLossPct,
			MaxPositionPct:   cfg.Risk.MaxPositionPct,
			MinPositionValue: cfg.Risk.MinPositionValue,
			MinStopDistance:  cfg.Risk.MinStopDistance,
			MaxDrawdownPct:   cfg.Risk.MaxDrawdownPct,
			MaxDailyLossPct:  cfg.Risk.MaxDailyLossPct,
		},
	}
}

func recordRun(ctx context.Context, cfg *config.Config, rec *store.RunRecord) error {
	registry, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening run registry: %w", err)
	}
	defer registry.Close()

	id, err := registry.AppendRun(ctx, rec)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	fmt.Printf("run recorded: %s\n", id)
	return nil
}

// printMetrics prints a name→value map in sorted key order.
func printMetrics(m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %12.4f\n", k, m[k])
	}
}
