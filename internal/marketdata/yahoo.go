package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/quote"

	"asx-auto-trader/internal/types"
)

// yahooFetcher prices symbols through Yahoo Finance. ASX tickers carry the
// .AX suffix on Yahoo; other exchanges pass through unmapped.
type yahooFetcher struct {
	suffix string
}

func newYahooFetcher(exchange string) *yahooFetcher {
	suffix := ""
	if exchange == "ASX" {
		suffix = ".AX"
	}
	return &yahooFetcher{suffix: suffix}
}

func (f *yahooFetcher) Name() string { return "yahoo" }

func (f *yahooFetcher) Fetch(ctx context.Context, symbol string) (types.MarketQuote, error) {
	if err := ctx.Err(); err != nil {
		return types.MarketQuote{}, err
	}

	q, err := quote.Get(f.yahooSymbol(symbol))
	if err != nil {
		return types.MarketQuote{}, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return types.MarketQuote{}, fmt.Errorf("%w: %s: no market price", ErrQuoteUnavailable, symbol)
	}

	return types.MarketQuote{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Volume:    int64(q.RegularMarketVolume),
		ChangePct: q.RegularMarketChangePercent,
		Timestamp: time.Now(),
	}, nil
}

func (f *yahooFetcher) yahooSymbol(symbol string) string {
	if f.suffix == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + f.suffix
}
