package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"asx-auto-trader/internal/schedule"
	"asx-auto-trader/internal/types"
)

// simFetcher serves deterministic pseudo-quotes: the same symbol gets the
// same price for a whole Sydney trading day, so repeated cycles and tests
// see stable data without a network.
type simFetcher struct{}

func newSimFetcher() *simFetcher {
	return &simFetcher{}
}

func (f *simFetcher) Name() string { return "sim" }

func (f *simFetcher) Fetch(_ context.Context, symbol string) (types.MarketQuote, error) {
	day := schedule.Now().Format("2006-01-02")
	rng := rand.New(rand.NewSource(int64(seed(symbol + "|" + day))))

	price := math.Round((10+rng.Float64()*90)*100) / 100
	volume := int64(rng.Float64() * 1_000_000)
	changePct := math.Round((rng.Float64()*10-5)*100) / 100

	return types.MarketQuote{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		ChangePct: changePct,
		Timestamp: schedule.Now(),
	}, nil
}

func seed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
