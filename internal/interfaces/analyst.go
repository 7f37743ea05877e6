package interfaces

import (
	"context"

	"asx-auto-trader/internal/types"
)

// Analyst turns collected news into trade recommendations. Implementations
// must degrade to an empty slice on malformed upstream output rather than
// failing the cycle.
type Analyst interface {
	Analyze(ctx context.Context, items []types.NewsItem) ([]types.Recommendation, error)
}
