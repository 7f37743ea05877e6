package news

import (
	"context"
	"reflect"
	"testing"
	"time"

	"asx-auto-trader/internal/types"
)

func TestExtractSymbols(t *testing.T) {
	text := "ASX wrap: BHP and RIO rally as CEO of QAN steps down, GDP data weighs on CBA"
	got := ExtractSymbols(text, 0)
	want := []string{"BHP", "RIO", "QAN", "CBA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSymbols = %v, want %v", got, want)
	}
}

func TestExtractSymbolsDedupesAndCaps(t *testing.T) {
	text := "BHP BHP WBC ANZ NAB"
	got := ExtractSymbols(text, 2)
	want := []string{"BHP", "WBC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSymbols = %v, want %v", got, want)
	}
}

func TestExtractSymbolsIgnoresNoise(t *testing.T) {
	cases := []string{
		"the market was quiet today",
		"THE AND FOR NOT ALL",
		"ASX CEO IPO RBA ETF USD AUD",
		"AB ABCD lowercase abc",
	}
	for _, text := range cases {
		if got := ExtractSymbols(text, 0); len(got) != 0 {
			t.Errorf("ExtractSymbols(%q) = %v, want none", text, got)
		}
	}
}

func TestSimCollectorShape(t *testing.T) {
	c := NewSimCollector([]string{"BHP", "CBA", "WBC"})

	items, err := c.Collect(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 10 {
		t.Fatalf("Expected 10 items, got %d", len(items))
	}

	allowed := map[string]bool{"BHP": true, "CBA": true, "WBC": true}
	for _, item := range items {
		if item.ID == "" || item.Title == "" || item.Summary == "" {
			t.Errorf("item missing fields: %+v", item)
		}
		if item.Source != "SIM" {
			t.Errorf("source = %q, want SIM", item.Source)
		}
		if len(item.Symbols) != 1 || !allowed[item.Symbols[0]] {
			t.Errorf("symbols = %v, want one of the universe", item.Symbols)
		}
	}
}

func TestSimCollectorDeterministicWithinDay(t *testing.T) {
	c := NewSimCollector(nil)

	first, err := c.Collect(context.Background(), []string{"BHP", "RIO"}, 5)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	second, err := c.Collect(context.Background(), []string{"BHP", "RIO"}, 5)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].Symbols[0] != second[i].Symbols[0] {
			t.Errorf("item %d differs between collects: %q vs %q", i, first[i].Title, second[i].Title)
		}
	}
}

func TestItemCache(t *testing.T) {
	cache := newItemCache(50 * time.Millisecond)

	items := []types.NewsItem{{ID: "a", Title: "headline"}}
	cache.set("BHP#5", items)

	got, ok := cache.get("BHP#5")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got[0].ID != "a" {
		t.Errorf("cached item = %+v", got[0])
	}

	if _, ok := cache.get("other"); ok {
		t.Error("unexpected hit for unknown key")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := cache.get("BHP#5"); ok {
		t.Error("entry should have expired")
	}

	cache.set("BHP#5", items)
	time.Sleep(80 * time.Millisecond)
	cache.cleanup()
	cache.mu.RLock()
	n := len(cache.data)
	cache.mu.RUnlock()
	if n != 0 {
		t.Errorf("cleanup left %d entries", n)
	}
}

func TestDedupeByID(t *testing.T) {
	items := []types.NewsItem{
		{ID: "1", Title: "first"},
		{ID: "2", Title: "second"},
		{ID: "1", Title: "duplicate"},
		{ID: "3", Title: "third"},
	}
	got := dedupeByID(items, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("dedupe should keep first occurrences in order: %+v", got)
	}
}

func TestStripHTML(t *testing.T) {
	in := `<a href="https://example.com">BHP rallies</a>&nbsp;<font color="#6f6f6f">The Age</font>`
	got := stripHTML(in)
	if got != "BHP rallies The Age" && got != "BHP rallies The Age" {
		t.Errorf("stripHTML = %q", got)
	}
}

func TestParsePubDate(t *testing.T) {
	got := parsePubDate("Tue, 25 Aug 2026 01:23:45 GMT")
	if got.Year() != 2026 || got.Month() != time.August || got.Day() != 25 {
		t.Errorf("parsePubDate = %v", got)
	}
	// Unparseable dates fall back to now, not zero.
	if parsePubDate("whenever").IsZero() {
		t.Error("fallback time should not be zero")
	}
}
