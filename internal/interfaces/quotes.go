package interfaces

import (
	"context"

	"asx-auto-trader/internal/types"
)

// QuoteProvider resolves current quotes for a symbol batch. The returned map
// may be missing entries for symbols that could not be quoted; callers treat
// absence as a recoverable condition.
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) (map[string]types.MarketQuote, error)
}
