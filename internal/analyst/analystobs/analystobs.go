package analystobs

import (
	"context"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

// observableAnalyst wraps an Analyst with observability (logging & tracing)
type observableAnalyst struct {
	analyst interfaces.Analyst
}

// Compile-time interface check
var _ interfaces.Analyst = (*observableAnalyst)(nil)

// Wrap wraps an analyst with observability middleware
func Wrap(analyst interfaces.Analyst) interfaces.Analyst {
	return &observableAnalyst{
		analyst: analyst,
	}
}

func (oa *observableAnalyst) Analyze(ctx context.Context, items []types.NewsItem) ([]types.Recommendation, error) {
	ctx, span := trace.StartSpan(ctx, "analyst.Analyze")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting trade recommendations",
		"news_items", len(items),
	)

	recs, err := oa.analyst.Analyze(ctx, items)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trade recommendations", err,
			"news_items", len(items),
		)
		return nil, err
	}

	buys, sells, holds := 0, 0, 0
	for _, rec := range recs {
		switch rec.Action {
		case types.ActionBuy:
			buys++
		case types.ActionSell:
			sells++
		default:
			holds++
		}
	}

	// Log recommendation summary - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Trade recommendations received",
		"count", len(recs),
		"buy", buys,
		"sell", sells,
		"hold", holds,
	)

	return recs, nil
}
