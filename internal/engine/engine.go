// Package engine runs the sequential trading workflow: news, analysis,
// quotes, risk, sizing, execution, portfolio upkeep, persistence. One
// RunCycle is one full pass. Collaborator failures degrade the cycle and
// are recorded as warnings; only context cancellation fails it.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"asx-auto-trader/internal/decision"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/metrics"
	"asx-auto-trader/internal/persist"
	"asx-auto-trader/internal/portfolio"
	"asx-auto-trader/internal/risk"
	"asx-auto-trader/internal/schedule"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/tradelog"
	"asx-auto-trader/internal/types"
)

type engine struct {
	cfg      *store.Config
	news     interfaces.NewsCollector
	analyst  interfaces.Analyst
	quotes   interfaces.QuoteProvider
	broker   interfaces.Broker
	book     *portfolio.Book
	decide   *decision.Orchestrator
	store    *persist.Store
	notifier interfaces.Notifier
	metrics  *metrics.Registry
}

var _ interfaces.Engine = (*engine)(nil)

// executedOrder pairs an intent with the result the broker returned for it.
type executedOrder struct {
	intent types.OrderIntent
	result types.ExecutionResult
}

func (e *engine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	started := schedule.Now()
	result := &types.CycleResult{
		CycleID:    newCycleID(started),
		StartedAt:  started,
		Intents:    []types.OrderIntent{},
		Executions: []types.ExecutionResult{},
	}
	logger.Info(ctx, "Cycle starting", "cycle_id", result.CycleID, "mode", e.cfg.Mode, "broker", e.broker.Name())

	items := e.collectNews(ctx, result)
	if err := e.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	recs := e.analyze(ctx, result, items)
	if err := e.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	symbols := e.symbolSet(recs)
	quotes := e.fetchQuotes(ctx, result, symbols)
	if err := e.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	result.OverallRisk = decision.OverallRisk(e.cfg.Risk.Overall, quotes)
	logger.Info(ctx, "Cycle market risk resolved",
		"cycle_id", result.CycleID,
		"overall_risk", result.OverallRisk,
		"configured", e.cfg.Risk.Overall != "",
	)

	intents := e.decide.Decide(ctx, recs, quotes, types.AccountContext{
		MaxPositionSize: e.cfg.Account.MaxPositionSize,
		OverallRisk:     result.OverallRisk,
		DefaultPrice:    e.cfg.Account.DefaultPrice,
	})
	result.Intents = append(result.Intents, intents...)
	e.metrics.IntentsEmitted.Add(float64(len(intents)))
	e.logDecisions(ctx, recs, quotes)

	executed := e.executeAll(ctx, result, intents, true)
	if err := e.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// Exit scan runs after entries so same-cycle fills are covered too.
	e.book.MarkPrices(ctx, quotes)
	exits := e.book.Sweep(ctx)
	if len(exits) > 0 {
		result.Intents = append(result.Intents, exits...)
		executed = append(executed, e.executeAll(ctx, result, exits, false)...)
	}

	for _, ex := range executed {
		result.Executions = append(result.Executions, ex.result)
	}
	result.FinishedAt = schedule.Now()

	e.persistCycle(ctx, result, recs, executed)
	e.metrics.RecordCycle(cycleStatus(ctx), time.Since(started).Seconds())

	logger.Info(ctx, "Cycle finished",
		"cycle_id", result.CycleID,
		"news", result.NewsCount,
		"recommendations", result.Recommendations,
		"quotes", result.QuoteCount,
		"intents", len(result.Intents),
		"executions", len(result.Executions),
		"warnings", len(result.Warnings),
	)
	return result, ctx.Err()
}

func (e *engine) collectNews(ctx context.Context, result *types.CycleResult) []types.NewsItem {
	items, err := e.news.Collect(ctx, e.cfg.Universe, e.cfg.News.MaxItems)
	if err != nil {
		e.warn(ctx, result, "news collection failed: %v", err)
		items = nil
	}
	if len(items) == 0 && err == nil {
		e.warn(ctx, result, "no news collected")
	}
	result.NewsCount = len(items)
	e.metrics.NewsItems.Add(float64(len(items)))
	return items
}

func (e *engine) analyze(ctx context.Context, result *types.CycleResult, items []types.NewsItem) []types.Recommendation {
	if len(items) == 0 {
		return nil
	}
	recs, err := e.analyst.Analyze(ctx, items)
	if err != nil {
		e.warn(ctx, result, "analyst failed: %v", err)
		recs = nil
	}
	result.Recommendations = len(recs)
	for _, rec := range recs {
		e.metrics.RecordRecommendation(rec.Action)
	}
	return recs
}

// symbolSet is the quote fan-out for this cycle: every recommended symbol,
// the configured universe, and symbols with open positions so their marks
// and exit bands stay current.
func (e *engine) symbolSet(recs []types.Recommendation) []string {
	seen := make(map[string]bool)
	var symbols []string
	add := func(symbol string) {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	for _, symbol := range e.cfg.Universe {
		add(symbol)
	}
	for _, rec := range recs {
		for _, symbol := range rec.Symbols {
			add(symbol)
		}
	}
	for _, pos := range e.book.Snapshot() {
		add(pos.Symbol)
	}
	return symbols
}

func (e *engine) fetchQuotes(ctx context.Context, result *types.CycleResult, symbols []string) map[string]types.MarketQuote {
	quotes, err := e.quotes.Quotes(ctx, symbols)
	if err != nil {
		e.warn(ctx, result, "quote fetch failed: %v", err)
	}
	if quotes == nil {
		quotes = map[string]types.MarketQuote{}
	}
	if missing := len(symbols) - len(quotes); missing > 0 {
		logger.Debug(ctx, "Quotes missing for some symbols", "requested", len(symbols), "missing", missing)
	}
	result.QuoteCount = len(quotes)
	return quotes
}

// executeAll pushes intents to the broker one at a time. Entry intents pass
// the portfolio gate first; exit intents close existing positions and skip
// it. Available funds are tracked locally across the batch so one cycle
// cannot overspend a slow-moving balance.
func (e *engine) executeAll(ctx context.Context, result *types.CycleResult, intents []types.OrderIntent, gated bool) []executedOrder {
	if len(intents) == 0 {
		return nil
	}

	var funds float64
	if gated {
		f, err := e.broker.Funds(ctx)
		if err != nil {
			e.warn(ctx, result, "funds lookup failed: %v", err)
			f = 0
		}
		funds = f
	}

	var executed []executedOrder
	for _, intent := range intents {
		if ctx.Err() != nil {
			return executed
		}

		if gated && intent.Action == types.ActionBuy {
			if ok, reason := e.book.CanOpen(ctx, intent, funds); !ok {
				logger.Risk(ctx, intent.Symbol, "exposure_gate",
					"reason", reason,
					"quantity", intent.Quantity,
					"estimated_cost", intent.EstimatedCost,
				)
				continue
			}
		}

		res, err := e.broker.ExecuteOrder(ctx, intent)
		if err != nil {
			e.warn(ctx, result, "order %s %s failed: %v", intent.Action, intent.Symbol, err)
			e.metrics.RecordOrder(types.StatusError)
			continue
		}
		executed = append(executed, executedOrder{intent: intent, result: res})
		e.metrics.RecordOrder(res.Status)
		e.recordFill(ctx, intent, res)

		switch {
		case res.Status == types.StatusError:
		case intent.Action == types.ActionBuy:
			funds -= intent.EstimatedCost
		case intent.Action == types.ActionSell:
			funds += intent.EstimatedCost
		}
	}
	return executed
}

// recordFill applies one broker result to the book, the trade log and the
// alerting channel.
func (e *engine) recordFill(ctx context.Context, intent types.OrderIntent, res types.ExecutionResult) {
	pnl := e.book.ApplyExecution(ctx, res)

	if res.Status == types.StatusSuccess || res.Status == types.StatusSimulated {
		entry := tradelog.Entry{
			Symbol:     res.Symbol,
			Side:       res.Action,
			Qty:        res.Quantity,
			Price:      res.Price,
			OrderID:    res.OrderID,
			Status:     res.Status,
			Reason:     intent.Reason,
			Confidence: intent.Confidence,
			RiskLevel:  intent.RiskLevel,
		}
		if pnl != 0 {
			entry.Extra = map[string]any{"realized_pnl": pnl}
		}
		if err := tradelog.Append(entry); err != nil {
			logger.ErrorWithErr(ctx, "Trade log append failed", err, "symbol", res.Symbol)
		}
	}

	if elevatedRisk(intent.RiskLevel) && res.Status != types.StatusError {
		subject := fmt.Sprintf("%s-risk order executed: %s %s", intent.RiskLevel, intent.Action, intent.Symbol)
		body := fmt.Sprintf("qty=%d price=%.2f cost=%.2f order_id=%s status=%s",
			res.Quantity, res.Price, intent.EstimatedCost, res.OrderID, res.Status)
		if err := e.notifier.Alert(ctx, "WARNING", subject, body); err != nil {
			logger.ErrorWithErr(ctx, "Alert delivery failed", err, "subject", subject)
		}
	}
}

// logDecisions writes one decision entry per (recommendation, symbol) pair,
// HOLDs included, so the decisions log shows what the analyst said even when
// nothing traded.
func (e *engine) logDecisions(ctx context.Context, recs []types.Recommendation, quotes map[string]types.MarketQuote) {
	for _, rec := range recs {
		for _, symbol := range rec.Symbols {
			entry := tradelog.DecisionEntry{
				Symbol:     symbol,
				Action:     rec.Action,
				Reason:     rec.Reasoning,
				Confidence: rec.Confidence,
				RiskLevel:  rec.RiskLevel,
			}
			if q, ok := quotes[symbol]; ok {
				entry.Price = q.Price
			}
			if rec.NewsID != "" {
				entry.Extra = map[string]any{"news_id": rec.NewsID}
			}
			if err := tradelog.AppendDecision(entry); err != nil {
				logger.Debug(ctx, "Decision log append failed", "symbol", symbol, "error", err.Error())
			}
		}
	}
}

func (e *engine) persistCycle(ctx context.Context, result *types.CycleResult, recs []types.Recommendation, executed []executedOrder) {
	for _, rec := range recs {
		if err := e.store.Signals().Insert(ctx, result.CycleID, rec); err != nil {
			logger.ErrorWithErr(ctx, "Signal persistence failed", err, "cycle_id", result.CycleID)
		}
	}
	for _, ex := range executed {
		if err := e.store.Orders().Insert(ctx, result.CycleID, ex.intent, ex.result); err != nil {
			logger.ErrorWithErr(ctx, "Order persistence failed", err, "cycle_id", result.CycleID, "symbol", ex.intent.Symbol)
		}
	}
	if err := e.store.Runs().Insert(ctx, result); err != nil {
		logger.ErrorWithErr(ctx, "Run persistence failed", err, "cycle_id", result.CycleID)
	}
}

func (e *engine) warn(ctx context.Context, result *types.CycleResult, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	result.Warnings = append(result.Warnings, msg)
	logger.Warn(ctx, "Cycle degraded", "cycle_id", result.CycleID, "warning", msg)
}

func (e *engine) checkCancelled(ctx context.Context, result *types.CycleResult) error {
	if err := ctx.Err(); err != nil {
		result.FinishedAt = schedule.Now()
		e.metrics.RecordCycle("cancelled", time.Since(result.StartedAt).Seconds())
		return err
	}
	return nil
}

func elevatedRisk(level string) bool {
	normalized := risk.NormalizeLevel(level)
	return normalized == risk.LevelHigh || normalized == risk.LevelExtreme
}

func cycleStatus(ctx context.Context) string {
	if ctx.Err() != nil {
		return "cancelled"
	}
	return "ok"
}

func newCycleID(t time.Time) string {
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), uuid.New().String()[:8])
}
