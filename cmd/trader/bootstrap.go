package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"asx-auto-trader/internal/analyst/analystobs"
	"asx-auto-trader/internal/analyst/claude"
	"asx-auto-trader/internal/analyst/noop"
	"asx-auto-trader/internal/analyst/openai"
	"asx-auto-trader/internal/broker"
	"asx-auto-trader/internal/broker/brokerobs"
	"asx-auto-trader/internal/engine"
	"asx-auto-trader/internal/engine/engineobs"
	"asx-auto-trader/internal/eod"
	"asx-auto-trader/internal/eod/eodobs"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/marketdata"
	"asx-auto-trader/internal/metrics"
	"asx-auto-trader/internal/news"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/tradelog"
)

// initializeSystem initializes the logger (which owns the tracer provider)
// and the EOD summarizer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger and tracer
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize EOD summarizer with observability
	initializeEOD()

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeAnalyst initializes and returns the analyst with observability
func initializeAnalyst(ctx context.Context, cfg *store.Config) interfaces.Analyst {
	var a interfaces.Analyst

	switch cfg.Analyst.Provider {
	case "OPENAI":
		a = openai.New(cfg)
	case "CLAUDE":
		a = claude.New(cfg)
	default:
		a = noop.New()
		logger.Warn(ctx, "No analyst provider configured - using noop analyst (always HOLD)")
	}

	// Wrap with observability middleware
	return analystobs.Wrap(a)
}

// initializeBroker initializes and returns the broker instance with observability
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := broker.New(ctx, cfg)

	// Wrap with observability middleware
	return brokerobs.Wrap(brk)
}

// initializeNews selects the configured news backend
func initializeNews(ctx context.Context, cfg *store.Config) interfaces.NewsCollector {
	if cfg.News.Provider == "SIM" {
		logger.Warn(ctx, "Using simulated news feed")
	}
	return news.New(cfg)
}

// initializeQuotes wires the quote provider with the fallback counter
func initializeQuotes(cfg *store.Config, registry *metrics.Registry) interfaces.QuoteProvider {
	return marketdata.New(cfg, marketdata.WithFallbackHook(func(symbol string) {
		registry.QuoteFallbacks.Inc()
	}))
}

// initializeEngine initializes and returns the trading engine with observability
func initializeEngine(cfg *store.Config, deps engine.Deps) interfaces.Engine {
	eng := engine.New(cfg, deps)

	// Wrap with observability middleware
	return engineobs.Wrap(eng)
}

// initializeEOD wraps the default EOD summarizer with observability
func initializeEOD() {
	baseSummarizer := eod.NewSummarizer()

	observableSummarizer := eodobs.Wrap(baseSummarizer)

	eod.SetDefaultSummarizer(observableSummarizer)
}
