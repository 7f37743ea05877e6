// Package portfolio tracks open positions across cycles: averaging in on
// buys, realizing P&L on sells, marking to market and sweeping stop-loss and
// take-profit exits. Money math runs on decimals; floats appear only at the
// edges where quotes and intents live.
package portfolio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/types"
)

// Position is one open long position.
type Position struct {
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	AvgPrice  float64   `json:"avg_price"`
	LastPrice float64   `json:"last_price,omitempty"`
	Stop      float64   `json:"stop"`
	Target    float64   `json:"target"`
	OpenedAt  time.Time `json:"opened_at"`
}

type position struct {
	qty      int
	avg      decimal.Decimal
	stop     decimal.Decimal
	target   decimal.Decimal
	last     decimal.Decimal
	marked   bool
	openedAt time.Time
}

// Book is the position ledger. All methods are safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	positions map[string]*position
	realized  decimal.Decimal

	stopPct     decimal.Decimal
	targetPct   decimal.Decimal
	trailing    bool
	maxOpen     int
	maxExposure decimal.Decimal
}

func NewBook(cfg *store.Config) *Book {
	return &Book{
		positions:   make(map[string]*position),
		stopPct:     decimal.NewFromFloat(cfg.Risk.StopLossPct).Div(decimal.NewFromInt(100)),
		targetPct:   decimal.NewFromFloat(cfg.Risk.TakeProfitPct).Div(decimal.NewFromInt(100)),
		trailing:    cfg.Risk.TrailingStop,
		maxOpen:     cfg.Risk.MaxOpenPositions,
		maxExposure: decimal.NewFromFloat(cfg.Risk.MaxExposurePct).Div(decimal.NewFromInt(100)),
	}
}

// CanOpen gates a BUY before it reaches the broker: position count and total
// exposure against available funds. Adding to an existing position does not
// consume a position slot. Never called for SELLs.
func (b *Book) CanOpen(ctx context.Context, intent types.OrderIntent, funds float64) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, held := b.positions[intent.Symbol]
	if !held && b.maxOpen > 0 && len(b.positions) >= b.maxOpen {
		return false, fmt.Sprintf("max open positions reached (%d)", b.maxOpen)
	}

	if funds <= 0 {
		return false, "no available funds"
	}

	exposure := b.exposureLocked().Add(decimal.NewFromFloat(intent.EstimatedCost))
	limit := decimal.NewFromFloat(funds).Mul(b.maxExposure)
	if exposure.Cmp(limit) > 0 {
		return false, fmt.Sprintf("would exceed max portfolio exposure (%s%% of funds)",
			b.maxExposure.Mul(decimal.NewFromInt(100)).String())
	}

	return true, ""
}

// ApplyExecution folds a fill into the book and returns the realized P&L of
// the trade (zero for buys). Failed executions are ignored.
func (b *Book) ApplyExecution(ctx context.Context, res types.ExecutionResult) float64 {
	if res.Status != types.StatusSuccess && res.Status != types.StatusSimulated {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	price := decimal.NewFromFloat(res.Price)
	qty := decimal.NewFromInt(int64(res.Quantity))

	switch res.Action {
	case types.ActionBuy:
		p := b.positions[res.Symbol]
		if p == nil {
			p = &position{
				qty:      res.Quantity,
				avg:      price,
				openedAt: res.ExecutedAt,
			}
			b.positions[res.Symbol] = p
		} else {
			totalCost := p.avg.Mul(decimal.NewFromInt(int64(p.qty))).Add(price.Mul(qty))
			p.qty += res.Quantity
			p.avg = totalCost.Div(decimal.NewFromInt(int64(p.qty)))
		}
		p.stop = p.avg.Mul(decimal.NewFromInt(1).Sub(b.stopPct))
		p.target = p.avg.Mul(decimal.NewFromInt(1).Add(b.targetPct))
		return 0

	case types.ActionSell:
		p := b.positions[res.Symbol]
		if p == nil {
			logger.Warn(ctx, "Sell execution with no open position", "symbol", res.Symbol, "qty", res.Quantity)
			return 0
		}

		sold := res.Quantity
		if sold > p.qty {
			sold = p.qty
		}
		pnl := price.Sub(p.avg).Mul(decimal.NewFromInt(int64(sold)))
		b.realized = b.realized.Add(pnl)

		p.qty -= sold
		if p.qty <= 0 {
			delete(b.positions, res.Symbol)
		}
		return pnl.InexactFloat64()
	}
	return 0
}

// MarkPrices refreshes last prices from a quote batch. With trailing stops
// enabled, stops ratchet up as the price rises and never move down.
func (b *Book) MarkPrices(ctx context.Context, quotes map[string]types.MarketQuote) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sym, p := range b.positions {
		q, ok := quotes[sym]
		if !ok || q.Price <= 0 {
			continue
		}
		p.last = decimal.NewFromFloat(q.Price)
		p.marked = true

		if b.trailing {
			newStop := p.last.Mul(decimal.NewFromInt(1).Sub(b.stopPct))
			if newStop.Cmp(p.stop) > 0 {
				p.stop = newStop
			}
		}
	}
}

// Sweep returns exit intents for every marked position sitting at or beyond
// its stop or target. Positions without a mark this cycle are left alone.
func (b *Book) Sweep(ctx context.Context) []types.OrderIntent {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbols := make([]string, 0, len(b.positions))
	for sym := range b.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var exits []types.OrderIntent
	for _, sym := range symbols {
		p := b.positions[sym]
		if !p.marked || p.qty <= 0 {
			continue
		}

		var reason string
		switch {
		case p.last.Cmp(p.stop) <= 0:
			reason = "stop_loss"
			logger.Risk(ctx, sym, "stop_loss_triggered",
				"last_price", p.last.InexactFloat64(),
				"stop", p.stop.InexactFloat64(),
				"qty", p.qty,
				"avg", p.avg.InexactFloat64(),
			)
		case p.last.Cmp(p.target) >= 0:
			reason = "take_profit"
			logger.Risk(ctx, sym, "take_profit_triggered",
				"last_price", p.last.InexactFloat64(),
				"target", p.target.InexactFloat64(),
				"qty", p.qty,
				"avg", p.avg.InexactFloat64(),
			)
		default:
			continue
		}

		price := p.last.InexactFloat64()
		exits = append(exits, types.OrderIntent{
			Symbol:        sym,
			Action:        types.ActionSell,
			Quantity:      p.qty,
			Price:         price,
			EstimatedCost: float64(p.qty) * price,
			Reason:        reason,
		})
	}
	return exits
}

// Snapshot returns the open positions sorted by symbol, for status reporting
// and persistence.
func (b *Book) Snapshot() []Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Position, 0, len(b.positions))
	for sym, p := range b.positions {
		out = append(out, Position{
			Symbol:    sym,
			Quantity:  p.qty,
			AvgPrice:  p.avg.InexactFloat64(),
			LastPrice: p.last.InexactFloat64(),
			Stop:      p.stop.InexactFloat64(),
			Target:    p.target.InexactFloat64(),
			OpenedAt:  p.openedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Open reports how many positions the book holds.
func (b *Book) Open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// RealizedPnL is the cumulative realized profit since the book was created.
func (b *Book) RealizedPnL() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.realized.InexactFloat64()
}

// Exposure is the current market value of all open positions, using the last
// mark where available and the entry price otherwise.
func (b *Book) Exposure() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exposureLocked().InexactFloat64()
}

func (b *Book) exposureLocked() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.positions {
		price := p.avg
		if p.marked {
			price = p.last
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(p.qty))))
	}
	return total
}
