// Package persist writes signals, orders and run summaries to Postgres.
// It is optional: with no DSN configured every method is a cheap no-op,
// so callers never branch on whether a database is attached.
package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
)

// Store owns the database handle and the table repositories.
// The zero value is a disabled store whose repos swallow writes.
type Store struct {
	db      *sqlx.DB
	signals *SignalsRepo
	orders  *OrdersRepo
	runs    *RunsRepo
}

// New connects to Postgres when cfg.Database.DSN is set and bootstraps the
// schema. An empty DSN returns a disabled store and no error.
func New(ctx context.Context, cfg *store.Config) (*Store, error) {
	if cfg == nil || cfg.Database.DSN == "" {
		logger.Debug(ctx, "Persistence disabled, no database DSN configured")
		return &Store{}, nil
	}

	timeout := time.Duration(cfg.Database.TimeoutSeconds) * time.Second

	db, err := sqlx.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := bootstrap(ctx, db, timeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(ctx, "Persistence enabled", "timeout", timeout.String())
	return &Store{
		db:      db,
		signals: &SignalsRepo{db: db, timeout: timeout},
		orders:  &OrdersRepo{db: db, timeout: timeout},
		runs:    &RunsRepo{db: db, timeout: timeout},
	}, nil
}

func bootstrap(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for _, stmt := range []string{signalsSchema, ordersSchema, runsSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// Enabled reports whether a database connection is attached.
func (s *Store) Enabled() bool { return s != nil && s.db != nil }

// Ping verifies the connection. Disabled stores always report healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Signals() *SignalsRepo {
	if s == nil {
		return nil
	}
	return s.signals
}

func (s *Store) Orders() *OrdersRepo {
	if s == nil {
		return nil
	}
	return s.orders
}

func (s *Store) Runs() *RunsRepo {
	if s == nil {
		return nil
	}
	return s.runs
}
