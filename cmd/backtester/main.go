package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/stratbench/config"
	"github.com/alejandrodnm/stratbench/internal/adapters/notify"
	"github.com/alejandrodnm/stratbench/internal/adapters/storage"
	"github.com/alejandrodnm/stratbench/internal/application/runner"
	"github.com/alejandrodnm/stratbench/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = defaults + env)")
	symbol := flag.String("symbol", "", "symbol to backtest, e.g. BTC-USD or AAPL (overrides config)")
	days := flag.Int("days", 0, "number of daily closes to use (overrides config)")
	capital := flag.Float64("capital", 0, "initial capital (overrides config)")
	strategies := flag.String("strategies", "", "comma-separated strategies, e.g. rsi,macd,buy_hold (default: all)")
	source := flag.String("source", "", "price source: finnhub|csv|parquet (overrides config)")
	csvPath := flag.String("csv", "", "CSV file with date,close columns (implies -source csv)")
	workers := flag.Int("workers", -1, "parallel strategy runs (overrides config; 0/1 = sequential)")
	trades := flag.Bool("trades", false, "print the trade history of the best strategy")
	jsonPath := flag.String("json", "", "also write the comparison as JSON to this file")
	history := flag.Bool("history", false, "list saved runs and exit")
	show := flag.String("show", "", "print a saved run by id and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	applyFlags(cfg, flagOverrides{
		symbol:     *symbol,
		days:       *days,
		capital:    *capital,
		strategies: *strategies,
		source:     *source,
		csvPath:    *csvPath,
		workers:    *workers,
	})
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	slog.Info("stratbench starting",
		"config", *configPath,
		"symbol", cfg.Backtest.Symbol,
		"days", cfg.Backtest.Days,
		"capital", cfg.Backtest.InitialCapital,
		"source", cfg.Data.Source,
		"workers", cfg.Backtest.Workers,
	)

	var store ports.ResultStorage
	if cfg.Storage.DSN != "" {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	prices, err := newPriceProvider(cfg)
	if err != nil {
		slog.Error("failed to set up price source", "err", err)
		os.Exit(1)
	}

	console := notify.NewConsole(*trades)
	notifiers := []ports.Notifier{console}
	if *jsonPath != "" {
		notifiers = append(notifiers, notify.NewJSONExporter(*jsonPath))
	}

	r, err := runner.New(runner.Config{
		Symbol:         cfg.Backtest.Symbol,
		Days:           cfg.Backtest.Days,
		InitialCapital: cfg.Backtest.InitialCapital,
		Workers:        cfg.Backtest.Workers,
		Strategies:     cfg.Backtest.Strategies,
		Params:         cfg.StrategyParams(),
		Source:         cfg.Data.Source,
	}, prices, store, notifiers...)
	if err != nil {
		slog.Error("failed to build runner", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *history:
		runs, err := r.History(ctx, 20)
		if err != nil {
			slog.Error("failed to list runs", "err", err)
			os.Exit(1)
		}
		console.PrintHistory(runs)
		return

	case *show != "":
		if err := r.Replay(ctx, *show); err != nil {
			slog.Error("failed to load run", "err", err, "id", *show)
			os.Exit(1)
		}
		return
	}

	meta, cmp, err := r.Run(ctx)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
	if len(cmp.Results) == 0 {
		slog.Error("every strategy failed", "run_id", meta.ID, "failed", len(cmp.Failures))
		os.Exit(1)
	}

	slog.Info("stratbench finished", "run_id", meta.ID)
}

type flagOverrides struct {
	symbol     string
	days       int
	capital    float64
	strategies string
	source     string
	csvPath    string
	workers    int
}

// applyFlags aplica sobre la config solo los flags que se pasaron.
func applyFlags(cfg *config.Config, f flagOverrides) {
	if f.symbol != "" {
		cfg.Backtest.Symbol = f.symbol
	}
	if f.days > 0 {
		cfg.Backtest.Days = f.days
	}
	if f.capital != 0 {
		cfg.Backtest.InitialCapital = f.capital
	}
	if f.strategies != "" {
		cfg.Backtest.Strategies = splitList(f.strategies)
	}
	if f.csvPath != "" {
		cfg.Data.CSVPath = f.csvPath
		cfg.Data.Source = config.SourceCSV
	}
	if f.source != "" {
		cfg.Data.Source = strings.ToLower(f.source)
	}
	if f.workers >= 0 {
		cfg.Backtest.Workers = f.workers
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
