package interfaces

import (
	"context"

	"asx-auto-trader/internal/types"
)

type Engine interface {
	RunCycle(ctx context.Context) (*types.CycleResult, error)
}
