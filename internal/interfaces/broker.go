package interfaces

import (
	"context"

	"asx-auto-trader/internal/types"
)

type Broker interface {
	ExecuteOrder(ctx context.Context, intent types.OrderIntent) (types.ExecutionResult, error)
	Funds(ctx context.Context) (float64, error)
	Name() string
}
