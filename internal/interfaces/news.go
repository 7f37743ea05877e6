package interfaces

import (
	"context"

	"asx-auto-trader/internal/types"
)

type NewsCollector interface {
	Collect(ctx context.Context, symbols []string, limit int) ([]types.NewsItem, error)
}
