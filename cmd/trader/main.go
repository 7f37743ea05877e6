package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asx-auto-trader/internal/engine"
	"asx-auto-trader/internal/eod"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/metrics"
	"asx-auto-trader/internal/notify"
	"asx-auto-trader/internal/ops"
	"asx-auto-trader/internal/persist"
	"asx-auto-trader/internal/portfolio"
	"asx-auto-trader/internal/schedule"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)
	compressOldLogs(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	registry := metrics.NewRegistry()
	book := portfolio.NewBook(cfg)
	notifier := notify.FromEnv()

	db, err := persist.New(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Database unavailable, continuing without persistence", err)
		db = &persist.Store{}
	}
	defer db.Close()

	eng := initializeEngine(cfg, engine.Deps{
		News:     initializeNews(ctx, cfg),
		Analyst:  initializeAnalyst(ctx, cfg),
		Quotes:   initializeQuotes(cfg, registry),
		Broker:   initializeBroker(ctx, cfg),
		Book:     book,
		Store:    db,
		Notifier: notifier,
		Metrics:  registry,
	})

	srv := ops.New(cfg.Ops.Listen, registry, book)
	go func() {
		if err := srv.Start(); err != nil {
			logger.ErrorWithErr(ctx, "Ops server failed", err)
		}
	}()

	runCycle := func() {
		result, err := eng.RunCycle(ctx)
		if result != nil {
			srv.SetLastCycle(result)
			b, _ := json.Marshal(result)
			fmt.Println(string(b))
		}
		if err != nil {
			logger.ErrorWithErr(ctx, "Cycle error", err)
			if alertErr := notifier.Alert(ctx, "ERROR", "Trading cycle failed", err.Error()); alertErr != nil {
				logger.ErrorWithErr(ctx, "Alert delivery failed", alertErr)
			}
		}
	}

	if *once {
		runCycle()
		shutdown(srv, db)
		return
	}

	interval := time.Duration(cfg.Schedule.CycleMinutes) * time.Minute
	cycleTimer := time.NewTimer(0)
	defer cycleTimer.Stop()
	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	logger.Info(ctx, "Trader started",
		"mode", cfg.Mode,
		"universe", len(cfg.Universe),
		"cycle_minutes", cfg.Schedule.CycleMinutes,
		"market_hours_only", cfg.Schedule.MarketHoursOnly,
	)

	for {
		select {
		case <-cycleTimer.C:
			if cfg.Schedule.MarketHoursOnly && !schedule.IsMarketOpen(schedule.Now()) {
				logger.Info(ctx, "Market closed, skipping cycle")
			} else {
				runCycle()
			}
			next := schedule.NextRunTime(schedule.Now(), interval)
			logger.Info(ctx, "Next cycle scheduled", "at", next.Format(time.RFC3339))
			cycleTimer.Reset(time.Until(next))
		case <-eodTick.C:
			if ok, _ := eod.ShouldRunNow(); ok {
				if p, err := eod.SummarizeToday(); err == nil && p != "" {
					logger.Info(ctx, "EOD summary written", "path", p)
				}
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			if p, err := eod.SummarizeToday(); err == nil && p != "" {
				logger.Info(ctx, "EOD summary written", "path", p)
			}
			shutdown(srv, db)
			return
		case <-ctx.Done():
			shutdown(srv, db)
			return
		}
	}
}

func shutdown(srv *ops.Server, db *persist.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Ops server shutdown failed", err)
	}
	if err := db.Close(); err != nil {
		logger.ErrorWithErr(ctx, "Database close failed", err)
	}
	_ = logger.Shutdown(ctx)
}
