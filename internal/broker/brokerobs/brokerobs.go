package brokerobs

import (
	"context"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

// ExecuteOrder places an order with observability
func (ob *observableBroker) ExecuteOrder(ctx context.Context, intent types.OrderIntent) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.ExecuteOrder")
	defer span.End()

	// Use InfoSkip(1) to report the actual caller, not this middleware wrapper
	logger.InfoSkip(ctx, 1, "Executing order",
		"symbol", intent.Symbol,
		"action", intent.Action,
		"qty", intent.Quantity,
		"price", intent.Price,
		"estimated_cost", intent.EstimatedCost,
	)

	result, err := ob.broker.ExecuteOrder(ctx, intent)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Failed to execute order", err,
			"symbol", intent.Symbol,
			"action", intent.Action,
			"qty", intent.Quantity,
		)
		return types.ExecutionResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order execution finished",
		"symbol", intent.Symbol,
		"order_id", result.OrderID,
		"status", result.Status,
	)
	return result, nil
}

// Funds reports the available balance with observability
func (ob *observableBroker) Funds(ctx context.Context) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Funds")
	defer span.End()

	funds, err := ob.broker.Funds(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch available funds", err)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Available funds fetched", "funds", funds)
	return funds, nil
}

func (ob *observableBroker) Name() string {
	return ob.broker.Name()
}
