// Package broker executes sized order intents against a trading venue. The
// sim backend tracks a paper balance and never touches a network; the ig
// backend drives the IG Markets REST API. New selects between them from
// config, and brokerobs adds the observability middleware.
package broker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/types"
)

const defaultSimFunds = 100_000.0

// simBroker fills every order instantly at the intent price and tracks the
// running paper balance. SIM_FUNDS overrides the starting balance.
type simBroker struct {
	mu      sync.Mutex
	balance float64
}

var _ interfaces.Broker = (*simBroker)(nil)

func NewSim() *simBroker {
	funds := defaultSimFunds
	if v := os.Getenv("SIM_FUNDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			funds = f
		}
	}
	return &simBroker{balance: funds}
}

func (b *simBroker) Name() string { return "sim" }

func (b *simBroker) ExecuteOrder(ctx context.Context, intent types.OrderIntent) (types.ExecutionResult, error) {
	logger.Debug(ctx, "Placing simulated order",
		"symbol", intent.Symbol,
		"action", intent.Action,
		"qty", intent.Quantity,
		"price", intent.Price,
	)

	b.mu.Lock()
	if intent.Action == types.ActionBuy {
		b.balance -= intent.EstimatedCost
	} else {
		b.balance += intent.EstimatedCost
	}
	balance := b.balance
	b.mu.Unlock()

	result := types.ExecutionResult{
		OrderID:    fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
		Status:     types.StatusSimulated,
		Message:    fmt.Sprintf("simulated, balance now %.2f", balance),
		Symbol:     intent.Symbol,
		Action:     intent.Action,
		Quantity:   intent.Quantity,
		Price:      intent.Price,
		ExecutedAt: time.Now(),
	}

	logger.Info(ctx, "Simulated order placed",
		"symbol", intent.Symbol,
		"action", intent.Action,
		"qty", intent.Quantity,
		"order_id", result.OrderID,
		"balance", balance,
	)
	return result, nil
}

func (b *simBroker) Funds(_ context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}
