package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"asx-auto-trader/internal/types"
)

// SignalsRepo stores analyst recommendations, one row per recommendation.
type SignalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *SignalsRepo) Insert(ctx context.Context, cycleID string, rec types.Recommendation) error {
	if r == nil || r.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO trading_signals (cycle_id, symbols, action, confidence, risk_level, reasoning, news_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		cycleID, strings.Join(rec.Symbols, ","), rec.Action,
		rec.Confidence, rec.RiskLevel, rec.Reasoning, rec.NewsID)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// OrdersRepo stores order intents paired with their execution results.
type OrdersRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *OrdersRepo) Insert(ctx context.Context, cycleID string, intent types.OrderIntent, res types.ExecutionResult) error {
	if r == nil || r.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var executedAt *time.Time
	if !res.ExecutedAt.IsZero() {
		executedAt = &res.ExecutedAt
	}

	const query = `
		INSERT INTO trading_orders (cycle_id, order_id, symbol, action, quantity, price, estimated_cost, status, message, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		cycleID, res.OrderID, intent.Symbol, intent.Action, intent.Quantity,
		intent.Price, intent.EstimatedCost, res.Status, res.Message, executedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// RunsRepo stores one summary row per workflow cycle.
type RunsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// RunRecord is a persisted cycle summary as read back from run_history.
type RunRecord struct {
	ID              int64     `db:"id" json:"id"`
	CycleID         string    `db:"cycle_id" json:"cycle_id"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	FinishedAt      time.Time `db:"finished_at" json:"finished_at"`
	OverallRisk     string    `db:"overall_risk" json:"overall_risk"`
	NewsCount       int       `db:"news_count" json:"news_count"`
	Recommendations int       `db:"recommendations" json:"recommendations"`
	QuoteCount      int       `db:"quote_count" json:"quote_count"`
	Intents         int       `db:"intents" json:"intents"`
	Executions      int       `db:"executions" json:"executions"`
	Warnings        string    `db:"warnings" json:"warnings,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

func (r *RunsRepo) Insert(ctx context.Context, result *types.CycleResult) error {
	if r == nil || r.db == nil || result == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	detail, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cycle result: %w", err)
	}

	const query = `
		INSERT INTO run_history (cycle_id, started_at, finished_at, overall_risk, news_count, recommendations, quote_count, intents, executions, warnings, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		result.CycleID, result.StartedAt, result.FinishedAt, result.OverallRisk,
		result.NewsCount, result.Recommendations, result.QuoteCount,
		len(result.Intents), len(result.Executions),
		strings.Join(result.Warnings, "; "), detail)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the latest n cycle summaries, newest first.
func (r *RunsRepo) Recent(ctx context.Context, n int) ([]RunRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 10
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT id, cycle_id, started_at, finished_at, overall_risk, news_count, recommendations, quote_count, intents, executions, warnings, created_at
		FROM run_history
		ORDER BY started_at DESC
		LIMIT $1`
	var records []RunRecord
	if err := r.db.SelectContext(ctx, &records, query, n); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return records, nil
}
