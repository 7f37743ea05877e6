package portfolio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/types"
)

func testBook(t *testing.T, yaml string) *Book {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return NewBook(cfg)
}

func fill(symbol, action string, qty int, price float64) types.ExecutionResult {
	return types.ExecutionResult{
		OrderID:    "SIM-1",
		Status:     types.StatusSimulated,
		Symbol:     symbol,
		Action:     action,
		Quantity:   qty,
		Price:      price,
		ExecutedAt: time.Now(),
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApplyExecutionBuyOpensPosition(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 45.00))

	snap := b.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 position, got %d", len(snap))
	}
	p := snap[0]
	if p.Quantity != 100 || !closeTo(p.AvgPrice, 45.00) {
		t.Errorf("unexpected position: %+v", p)
	}
	// default stop 5% below, target 10% above entry
	if !closeTo(p.Stop, 42.75) {
		t.Errorf("stop = %v, want 42.75", p.Stop)
	}
	if !closeTo(p.Target, 49.50) {
		t.Errorf("target = %v, want 49.50", p.Target)
	}
}

func TestApplyExecutionAveragesIn(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 45.00))
	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 50, 46.00))

	p := b.Snapshot()[0]
	want := (100*45.00 + 50*46.00) / 150
	if p.Quantity != 150 || math.Abs(p.AvgPrice-want) > 1e-6 {
		t.Errorf("position = %+v, want qty 150 avg %.4f", p, want)
	}
}

func TestApplyExecutionSellRealizesPnL(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 45.00))
	pnl := b.ApplyExecution(ctx, fill("BHP", types.ActionSell, 40, 47.50))

	if !closeTo(pnl, 40*2.50) {
		t.Errorf("realized pnl = %v, want 100.00", pnl)
	}
	if !closeTo(b.RealizedPnL(), 100.00) {
		t.Errorf("book realized = %v, want 100.00", b.RealizedPnL())
	}
	if p := b.Snapshot()[0]; p.Quantity != 60 {
		t.Errorf("remaining qty = %d, want 60", p.Quantity)
	}
}

func TestApplyExecutionSellClosesPosition(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 45.00))
	b.ApplyExecution(ctx, fill("BHP", types.ActionSell, 100, 44.00))

	if b.Open() != 0 {
		t.Errorf("expected book empty after full close, open=%d", b.Open())
	}
	if !closeTo(b.RealizedPnL(), -100.00) {
		t.Errorf("realized = %v, want -100.00", b.RealizedPnL())
	}
}

func TestApplyExecutionSellClampsToHeld(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 50, 40.00))
	pnl := b.ApplyExecution(ctx, fill("BHP", types.ActionSell, 80, 42.00))

	if !closeTo(pnl, 50*2.00) {
		t.Errorf("realized pnl = %v, want 100.00 (clamped to held qty)", pnl)
	}
	if b.Open() != 0 {
		t.Error("position should be closed")
	}
}

func TestApplyExecutionSellWithoutPosition(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")

	if pnl := b.ApplyExecution(context.Background(), fill("BHP", types.ActionSell, 10, 42.00)); pnl != 0 {
		t.Errorf("expected 0 pnl for sell without position, got %v", pnl)
	}
}

func TestApplyExecutionIgnoresFailedOrders(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")

	res := fill("BHP", types.ActionBuy, 100, 45.00)
	res.Status = types.StatusError
	b.ApplyExecution(context.Background(), res)

	if b.Open() != 0 {
		t.Error("failed execution must not open a position")
	}
}

func TestSweepStopLoss(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 100.00))
	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 94.00}})

	exits := b.Sweep(ctx)
	if len(exits) != 1 {
		t.Fatalf("expected 1 exit intent, got %d", len(exits))
	}
	exit := exits[0]
	if exit.Action != types.ActionSell || exit.Quantity != 100 || exit.Reason != "stop_loss" {
		t.Errorf("unexpected exit: %+v", exit)
	}
	if !closeTo(exit.Price, 94.00) || !closeTo(exit.EstimatedCost, 9400.00) {
		t.Errorf("exit priced wrong: %+v", exit)
	}
}

func TestSweepTakeProfit(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 100.00))
	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 111.00}})

	exits := b.Sweep(ctx)
	if len(exits) != 1 || exits[0].Reason != "take_profit" {
		t.Fatalf("expected take_profit exit, got %+v", exits)
	}
}

func TestSweepHoldsInsideBand(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 100.00))
	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 102.00}})

	if exits := b.Sweep(ctx); len(exits) != 0 {
		t.Errorf("expected no exits inside the band, got %+v", exits)
	}
}

func TestSweepSkipsUnmarkedPositions(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 100.00))

	// no MarkPrices call this cycle
	if exits := b.Sweep(ctx); len(exits) != 0 {
		t.Errorf("unmarked position must not be swept, got %+v", exits)
	}
}

func TestTrailingStopRatchetsUp(t *testing.T) {
	b := testBook(t, "risk:\n  trailing_stop: true\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 100.00))
	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 120.00}})

	p := b.Snapshot()[0]
	if !closeTo(p.Stop, 114.00) {
		t.Fatalf("trailing stop = %v, want 114.00", p.Stop)
	}

	// price falls back but stays above entry; the ratcheted stop holds
	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 113.00}})
	p = b.Snapshot()[0]
	if !closeTo(p.Stop, 114.00) {
		t.Errorf("trailing stop moved down to %v", p.Stop)
	}

	exits := b.Sweep(ctx)
	if len(exits) != 1 || exits[0].Reason != "stop_loss" {
		t.Errorf("expected trailing stop exit, got %+v", exits)
	}
}

func TestCanOpenExposureGate(t *testing.T) {
	b := testBook(t, "risk:\n  max_exposure_pct: 20\n")
	ctx := context.Background()

	// exposure 1500 of 10000 funds; limit is 2000
	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 15.00))

	ok, _ := b.CanOpen(ctx, types.OrderIntent{Symbol: "WBC", Action: types.ActionBuy, Quantity: 10, Price: 40, EstimatedCost: 400}, 10000)
	if !ok {
		t.Error("intent within exposure limit should pass")
	}

	ok, reason := b.CanOpen(ctx, types.OrderIntent{Symbol: "WBC", Action: types.ActionBuy, Quantity: 20, Price: 40, EstimatedCost: 800}, 10000)
	if ok {
		t.Error("intent breaching exposure limit should be rejected")
	}
	if reason == "" {
		t.Error("rejection should carry a reason")
	}
}

func TestCanOpenMaxPositions(t *testing.T) {
	b := testBook(t, "risk:\n  max_open_positions: 2\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 10, 10.00))
	b.ApplyExecution(ctx, fill("WBC", types.ActionBuy, 10, 10.00))

	ok, _ := b.CanOpen(ctx, types.OrderIntent{Symbol: "CSL", Action: types.ActionBuy, EstimatedCost: 100}, 1_000_000)
	if ok {
		t.Error("third symbol should be rejected at max_open_positions 2")
	}

	// adding to a held symbol does not consume a slot
	ok, _ = b.CanOpen(ctx, types.OrderIntent{Symbol: "BHP", Action: types.ActionBuy, EstimatedCost: 100}, 1_000_000)
	if !ok {
		t.Error("adding to an existing position should pass")
	}
}

func TestCanOpenNoFunds(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")

	ok, reason := b.CanOpen(context.Background(), types.OrderIntent{Symbol: "BHP", EstimatedCost: 100}, 0)
	if ok {
		t.Error("zero funds must reject")
	}
	if reason != "no available funds" {
		t.Errorf("reason = %q", reason)
	}
}

func TestExposureUsesMarks(t *testing.T) {
	b := testBook(t, "universe: [BHP]\n")
	ctx := context.Background()

	b.ApplyExecution(ctx, fill("BHP", types.ActionBuy, 100, 10.00))
	if !closeTo(b.Exposure(), 1000.00) {
		t.Errorf("exposure = %v, want entry value 1000", b.Exposure())
	}

	b.MarkPrices(ctx, map[string]types.MarketQuote{"BHP": {Symbol: "BHP", Price: 12.00}})
	if !closeTo(b.Exposure(), 1200.00) {
		t.Errorf("exposure = %v, want marked value 1200", b.Exposure())
	}
}
