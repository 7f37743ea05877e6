package decision

import (
	"context"
	"strings"

	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/risk"
	"asx-auto-trader/internal/types"
)

// Orchestrator turns a cycle's recommendations plus market quotes into the
// ordered list of executable order intents. It is pure computation over its
// inputs: no stored state between calls, no effects beyond logging, identical
// inputs always produce identical output.
type Orchestrator struct {
	filter *tradeFilter
	sizer  *positionSizer
}

func New() *Orchestrator {
	return &Orchestrator{
		filter: newTradeFilter(),
		sizer:  newPositionSizer(),
	}
}

// Decide expands each recommendation across the symbols it names, applies the
// trade filter, resolves an execution price, sizes the position and collects
// intents with quantity > 0, preserving input order throughout.
//
// A failure evaluating one (recommendation, symbol) pair is logged and
// skipped; the rest of the batch is unaffected. Decide never returns an
// error: the worst outcome is an empty slice.
func (o *Orchestrator) Decide(ctx context.Context, recs []types.Recommendation, quotes map[string]types.MarketQuote, account types.AccountContext) []types.OrderIntent {
	intents := make([]types.OrderIntent, 0, len(recs))

	for _, rec := range recs {
		for _, symbol := range rec.Symbols {
			intent, ok := o.evaluate(ctx, symbol, rec, quotes, account)
			if ok {
				intents = append(intents, intent)
			}
		}
	}

	return intents
}

// evaluate runs one (recommendation, symbol) pair through filter, price
// resolution and sizing. The recover keeps a single poisoned evaluation from
// aborting the batch.
func (o *Orchestrator) evaluate(ctx context.Context, symbol string, rec types.Recommendation, quotes map[string]types.MarketQuote, account types.AccountContext) (intent types.OrderIntent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Recommendation evaluation failed",
				"symbol", symbol,
				"news_id", rec.NewsID,
				"panic", r,
			)
			ok = false
		}
	}()

	eligible, reason := o.filter.eligible(rec)
	if !eligible {
		if reason == rejectExtremeRisk || reason == rejectHighRiskDoubt {
			logger.Risk(ctx, symbol, "TRADE_FILTERED",
				"reason", reason,
				"action", rec.Action,
				"confidence", rec.Confidence,
				"risk_level", rec.RiskLevel,
			)
		} else {
			logger.Debug(ctx, "Recommendation not tradeable",
				"symbol", symbol,
				"action", rec.Action,
				"reason", reason,
			)
		}
		return types.OrderIntent{}, false
	}

	price := o.resolvePrice(ctx, symbol, quotes, account)
	qty, allocation := o.sizer.shares(rec, account.OverallRisk, account.MaxPositionSize, price)
	if qty <= 0 {
		logger.Debug(ctx, "Zero quantity after sizing, intent discarded",
			"symbol", symbol,
			"allocation", allocation,
			"price", price,
		)
		return types.OrderIntent{}, false
	}

	action := strings.ToUpper(strings.TrimSpace(rec.Action))
	intent = types.OrderIntent{
		Symbol:        symbol,
		Action:        action,
		Quantity:      qty,
		Price:         price,
		EstimatedCost: float64(qty) * price,
		Confidence:    strings.ToUpper(strings.TrimSpace(rec.Confidence)),
		RiskLevel:     strings.ToUpper(strings.TrimSpace(rec.RiskLevel)),
		NewsID:        rec.NewsID,
		Reason:        rec.Reasoning,
	}

	logger.Decision(ctx, symbol, action, intent.Confidence, intent.RiskLevel, rec.Reasoning,
		"quantity", qty,
		"price", price,
		"estimated_cost", intent.EstimatedCost,
		"allocation", allocation,
		"overall_risk", account.OverallRisk,
	)

	return intent, true
}

// resolvePrice picks the execution price for a symbol. A missing quote and a
// quote with a non-positive price are the same recoverable condition: both
// fall back to the account default (or the package constant) with a warning.
func (o *Orchestrator) resolvePrice(ctx context.Context, symbol string, quotes map[string]types.MarketQuote, account types.AccountContext) float64 {
	fallback := account.DefaultPrice
	if fallback <= 0 {
		fallback = defaultPrice
	}

	q, found := quotes[symbol]
	if !found {
		logger.Warn(ctx, "No quote for symbol, using default price",
			"symbol", symbol,
			"default_price", fallback,
		)
		return fallback
	}
	if q.Price <= 0 {
		logger.Warn(ctx, "Quote has invalid price, using default price",
			"symbol", symbol,
			"quote_price", q.Price,
			"default_price", fallback,
		)
		return fallback
	}
	return q.Price
}

// OverallRisk resolves the cycle's overall market risk: a fixed level from
// configuration wins, otherwise the market is classified from the quote
// batch.
func OverallRisk(configured string, quotes map[string]types.MarketQuote) string {
	if strings.TrimSpace(configured) != "" {
		return risk.NormalizeLevel(configured)
	}
	return risk.ClassifyMarket(quotes)
}
