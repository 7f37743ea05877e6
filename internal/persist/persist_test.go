package persist

import (
	"context"
	"testing"
	"time"

	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/types"
)

func TestDisabledStoreIsNoOp(t *testing.T) {
	cfg := &store.Config{}
	s, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New with empty DSN: %v", err)
	}
	if s.Enabled() {
		t.Error("store with empty DSN should be disabled")
	}

	ctx := context.Background()
	rec := types.Recommendation{Symbols: []string{"BHP"}, Action: types.ActionBuy}
	if err := s.Signals().Insert(ctx, "cycle-1", rec); err != nil {
		t.Errorf("disabled Signals.Insert: %v", err)
	}
	intent := types.OrderIntent{Symbol: "BHP", Action: types.ActionBuy, Quantity: 10, Price: 45}
	res := types.ExecutionResult{OrderID: "X", Status: types.StatusSimulated, ExecutedAt: time.Now()}
	if err := s.Orders().Insert(ctx, "cycle-1", intent, res); err != nil {
		t.Errorf("disabled Orders.Insert: %v", err)
	}
	if err := s.Runs().Insert(ctx, &types.CycleResult{CycleID: "cycle-1"}); err != nil {
		t.Errorf("disabled Runs.Insert: %v", err)
	}
	records, err := s.Runs().Recent(ctx, 5)
	if err != nil {
		t.Errorf("disabled Runs.Recent: %v", err)
	}
	if records != nil {
		t.Errorf("disabled Runs.Recent returned %d records, want none", len(records))
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("disabled Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("disabled Close: %v", err)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if s.Enabled() {
		t.Error("nil store should report disabled")
	}
	if err := s.Signals().Insert(ctx, "c", types.Recommendation{}); err != nil {
		t.Errorf("nil Signals.Insert: %v", err)
	}
	if err := s.Orders().Insert(ctx, "c", types.OrderIntent{}, types.ExecutionResult{}); err != nil {
		t.Errorf("nil Orders.Insert: %v", err)
	}
	if err := s.Runs().Insert(ctx, nil); err != nil {
		t.Errorf("nil Runs.Insert: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("nil Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestNewNilConfig(t *testing.T) {
	s, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New(nil): %v", err)
	}
	if s.Enabled() {
		t.Error("nil config should produce a disabled store")
	}
}
