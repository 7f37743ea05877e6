// Package marketdata resolves quote batches for the decision stage. A batch
// never fails because one symbol does: backend errors leave the symbol out of
// the result map and the sizing stage falls back to its default price. When
// the backend itself is gated by the circuit breaker, simulated quotes keep
// the cycle running until it recovers.
package marketdata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

// ErrQuoteUnavailable marks a symbol the backend could not price. Callers
// see it only through fetcher tests; Quotes folds it into an absent entry.
var ErrQuoteUnavailable = errors.New("quote unavailable")

const maxWorkers = 20

// fetcher prices one symbol against one backend.
type fetcher interface {
	Fetch(ctx context.Context, symbol string) (types.MarketQuote, error)
	Name() string
}

type provider struct {
	primary    fetcher
	fallback   fetcher
	breaker    *gobreaker.CircuitBreaker
	cache      *quoteCache
	workers    int
	onFallback func(symbol string)
}

var _ interfaces.QuoteProvider = (*provider)(nil)

// Option configures the quote provider.
type Option func(*provider)

// WithFallbackHook registers a callback fired once per simulated fallback
// quote, keyed by symbol. Used to feed the ops counters.
func WithFallbackHook(fn func(symbol string)) Option {
	return func(p *provider) {
		p.onFallback = fn
	}
}

// New builds the quote provider for the configured backend. YAHOO gets a
// circuit breaker with a simulated fallback; SIM serves simulated quotes
// directly and never trips.
func New(cfg *store.Config, opts ...Option) interfaces.QuoteProvider {
	p := &provider{
		cache:   newQuoteCache(time.Duration(cfg.MarketData.CacheTTLSeconds) * time.Second),
		workers: cfg.MarketData.Workers,
	}

	if cfg.MarketData.Provider == "YAHOO" {
		p.primary = newYahooFetcher(cfg.Exchange)
		p.fallback = newSimFetcher()
		p.breaker = newBreaker(cfg)
	} else {
		p.primary = newSimFetcher()
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newBreaker(cfg *store.Config) *gobreaker.CircuitBreaker {
	b := cfg.MarketData.Breaker
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "marketdata",
		MaxRequests: b.MaxRequests,
		Interval:    time.Duration(b.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(b.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "Quote backend breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Quotes prices the batch. Symbols are deduped and uppercased, cache hits
// are served without touching the backend, and misses fan out over a bounded
// worker pool. The returned map omits symbols that could not be priced.
func (p *provider) Quotes(ctx context.Context, symbols []string) (map[string]types.MarketQuote, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Quotes")
	defer span.End()

	out := make(map[string]types.MarketQuote, len(symbols))
	var misses []string
	seen := make(map[string]bool, len(symbols))

	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		if q, ok := p.cache.get(sym); ok {
			out[sym] = q
			continue
		}
		misses = append(misses, sym)
	}

	if len(misses) == 0 {
		return out, nil
	}

	workers := p.workers
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > len(misses) {
		workers = len(misses)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				q, ok := p.resolve(ctx, sym)
				if !ok {
					continue
				}
				mu.Lock()
				out[sym] = q
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, sym := range misses {
		select {
		case jobs <- sym:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}

	logger.Debug(ctx, "Quote batch resolved",
		"requested", len(seen),
		"resolved", len(out),
		"cache_hits", len(seen)-len(misses),
	)
	return out, nil
}

// resolve prices one symbol. Breaker-gated calls degrade to the simulated
// fallback; ordinary fetch failures leave the symbol unpriced.
func (p *provider) resolve(ctx context.Context, sym string) (types.MarketQuote, bool) {
	if p.breaker == nil {
		q, err := p.primary.Fetch(ctx, sym)
		if err != nil {
			logger.Warn(ctx, "Quote unavailable", "symbol", sym, "backend", p.primary.Name(), "error", err)
			return types.MarketQuote{}, false
		}
		p.cache.set(sym, q)
		return q, true
	}

	res, err := p.breaker.Execute(func() (any, error) {
		return p.primary.Fetch(ctx, sym)
	})
	if err == nil {
		q := res.(types.MarketQuote)
		p.cache.set(sym, q)
		return q, true
	}

	if p.fallback != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		logger.Warn(ctx, "Quote backend gated, serving simulated quote",
			"symbol", sym,
			"backend", p.primary.Name(),
		)
		if p.onFallback != nil {
			p.onFallback(sym)
		}
		// fallback quotes are not cached so recovery is picked up immediately
		q, _ := p.fallback.Fetch(ctx, sym)
		return q, true
	}

	logger.Warn(ctx, "Quote unavailable", "symbol", sym, "backend", p.primary.Name(), "error", err)
	return types.MarketQuote{}, false
}
