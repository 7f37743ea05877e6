package noop

import (
	"context"
	"testing"

	"asx-auto-trader/internal/types"
)

func TestAnalyzeHoldsEveryMentionedSymbol(t *testing.T) {
	items := []types.NewsItem{
		{ID: "n1", Title: "a", Symbols: []string{"BHP", "RIO"}},
		{ID: "n2", Title: "b", Symbols: []string{"BHP", "WBC"}},
	}

	recs, err := New().Analyze(context.Background(), items)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}

	want := []string{"BHP", "RIO", "WBC"}
	for i, rec := range recs {
		if rec.Action != types.ActionHold {
			t.Errorf("rec %d: expected HOLD, got %q", i, rec.Action)
		}
		if rec.Symbols[0] != want[i] {
			t.Errorf("rec %d: expected symbol %s, got %s", i, want[i], rec.Symbols[0])
		}
	}
	if recs[2].NewsID != "n2" {
		t.Errorf("expected WBC rec to reference n2, got %q", recs[2].NewsID)
	}
}

func TestAnalyzeNoItems(t *testing.T) {
	recs, err := New().Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}
