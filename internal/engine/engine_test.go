package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"asx-auto-trader/internal/portfolio"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/types"
)

type fakeNews struct {
	items []types.NewsItem
	err   error
	calls int
}

func (f *fakeNews) Collect(ctx context.Context, symbols []string, limit int) ([]types.NewsItem, error) {
	f.calls++
	return f.items, f.err
}

type fakeAnalyst struct {
	recs  []types.Recommendation
	err   error
	calls int
}

func (f *fakeAnalyst) Analyze(ctx context.Context, items []types.NewsItem) ([]types.Recommendation, error) {
	f.calls++
	return f.recs, f.err
}

type fakeQuotes struct {
	quotes    map[string]types.MarketQuote
	err       error
	requested []string
}

func (f *fakeQuotes) Quotes(ctx context.Context, symbols []string) (map[string]types.MarketQuote, error) {
	f.requested = symbols
	return f.quotes, f.err
}

type fakeBroker struct {
	funds    float64
	fundsErr error
	execErr  error
	status   string
	executed []types.OrderIntent
}

func (f *fakeBroker) ExecuteOrder(ctx context.Context, intent types.OrderIntent) (types.ExecutionResult, error) {
	if f.execErr != nil {
		return types.ExecutionResult{}, f.execErr
	}
	f.executed = append(f.executed, intent)
	status := f.status
	if status == "" {
		status = types.StatusSimulated
	}
	return types.ExecutionResult{
		OrderID:    fmt.Sprintf("T-%d", len(f.executed)),
		Status:     status,
		Symbol:     intent.Symbol,
		Action:     intent.Action,
		Quantity:   intent.Quantity,
		Price:      intent.Price,
		ExecutedAt: time.Now(),
	}, nil
}

func (f *fakeBroker) Funds(ctx context.Context) (float64, error) {
	return f.funds, f.fundsErr
}

func (f *fakeBroker) Name() string { return "fake" }

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) Alert(ctx context.Context, level, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func testConfig(t *testing.T, yaml string) *store.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

const baseYAML = `
universe: [BHP, RIO]
risk:
  overall: LOW
  max_exposure_pct: 20
`

func newsItems() []types.NewsItem {
	return []types.NewsItem{
		{ID: "n1", Title: "BHP lifts guidance", Symbols: []string{"BHP"}},
		{ID: "n2", Title: "Iron ore rallies", Symbols: []string{"BHP", "RIO"}},
	}
}

func buyRec(symbol string) types.Recommendation {
	return types.Recommendation{
		Symbols:    []string{symbol},
		Action:     types.ActionBuy,
		Confidence: "HIGH",
		RiskLevel:  "LOW",
		Reasoning:  "guidance upgrade",
		NewsID:     "n1",
	}
}

func quoteMap(prices map[string]float64) map[string]types.MarketQuote {
	out := make(map[string]types.MarketQuote, len(prices))
	for symbol, price := range prices {
		out[symbol] = types.MarketQuote{Symbol: symbol, Price: price, Timestamp: time.Now()}
	}
	return out
}

func newTestEngine(t *testing.T, cfg *store.Config, deps Deps) (*engine, Deps) {
	t.Helper()
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	if deps.News == nil {
		deps.News = &fakeNews{}
	}
	if deps.Analyst == nil {
		deps.Analyst = &fakeAnalyst{}
	}
	if deps.Quotes == nil {
		deps.Quotes = &fakeQuotes{}
	}
	if deps.Broker == nil {
		deps.Broker = &fakeBroker{funds: 100_000}
	}
	if deps.Book == nil {
		deps.Book = portfolio.NewBook(cfg)
	}
	return New(cfg, deps).(*engine), deps
}

func TestRunCycleHappyPath(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	broker := &fakeBroker{funds: 100_000}
	notifier := &fakeNotifier{}
	eng, deps := newTestEngine(t, cfg, Deps{
		News:     &fakeNews{items: newsItems()},
		Analyst:  &fakeAnalyst{recs: []types.Recommendation{buyRec("BHP")}},
		Quotes:   &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50, "RIO": 120})},
		Broker:   broker,
		Notifier: notifier,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.NewsCount != 2 {
		t.Errorf("news count = %d, want 2", result.NewsCount)
	}
	if result.Recommendations != 1 {
		t.Errorf("recommendations = %d, want 1", result.Recommendations)
	}
	if result.OverallRisk != "LOW" {
		t.Errorf("overall risk = %q, want LOW (configured)", result.OverallRisk)
	}
	if result.QuoteCount != 2 {
		t.Errorf("quote count = %d, want 2", result.QuoteCount)
	}
	if len(result.Intents) != 1 {
		t.Fatalf("intents = %d, want 1", len(result.Intents))
	}
	// LOW overall x LOW symbol x HIGH confidence keeps the full 10000
	// allocation; 10000 / 50 = 200 shares.
	intent := result.Intents[0]
	if intent.Symbol != "BHP" || intent.Quantity != 200 || intent.EstimatedCost != 10000 {
		t.Errorf("unexpected intent: %+v", intent)
	}
	if len(result.Executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(result.Executions))
	}
	if result.Executions[0].Status != types.StatusSimulated {
		t.Errorf("execution status = %q, want SIMULATED", result.Executions[0].Status)
	}
	if len(broker.executed) != 1 || broker.executed[0].Symbol != "BHP" {
		t.Errorf("broker saw %+v, want one BHP order", broker.executed)
	}
	if deps.Book.Open() != 1 {
		t.Errorf("book open positions = %d, want 1", deps.Book.Open())
	}
	if len(notifier.subjects) != 0 {
		t.Errorf("unexpected alerts for LOW-risk order: %v", notifier.subjects)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Error("finished_at precedes started_at")
	}
	if result.CycleID == "" {
		t.Error("cycle id is empty")
	}
}

func TestRunCycleNewsFailureDegrades(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	analyst := &fakeAnalyst{recs: []types.Recommendation{buyRec("BHP")}}
	eng, _ := newTestEngine(t, cfg, Deps{
		News:    &fakeNews{err: errors.New("feed down")},
		Analyst: analyst,
		Quotes:  &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50})},
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if analyst.calls != 0 {
		t.Errorf("analyst called %d times with no news, want 0", analyst.calls)
	}
	if len(result.Intents) != 0 || len(result.Executions) != 0 {
		t.Errorf("intents=%d executions=%d, want 0/0", len(result.Intents), len(result.Executions))
	}
	if !hasWarning(result, "news collection failed") {
		t.Errorf("warnings = %v, want news failure recorded", result.Warnings)
	}
}

func TestRunCycleAnalystFailureDegrades(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	quotes := &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50, "RIO": 120})}
	eng, _ := newTestEngine(t, cfg, Deps{
		News:    &fakeNews{items: newsItems()},
		Analyst: &fakeAnalyst{err: errors.New("model unavailable")},
		Quotes:  quotes,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !hasWarning(result, "analyst failed") {
		t.Errorf("warnings = %v, want analyst failure recorded", result.Warnings)
	}
	if len(result.Intents) != 0 {
		t.Errorf("intents = %d, want 0", len(result.Intents))
	}
	// Quotes still fetched for the universe so risk and marks stay current.
	if len(quotes.requested) != 2 {
		t.Errorf("quotes requested for %v, want universe", quotes.requested)
	}
}

func TestRunCycleExposureGateBlocks(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	broker := &fakeBroker{funds: 1000} // 20% cap: limit 200, intent costs 10000
	eng, _ := newTestEngine(t, cfg, Deps{
		News:    &fakeNews{items: newsItems()},
		Analyst: &fakeAnalyst{recs: []types.Recommendation{buyRec("BHP")}},
		Quotes:  &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50, "RIO": 120})},
		Broker:  broker,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.Intents) != 1 {
		t.Fatalf("intents = %d, want 1", len(result.Intents))
	}
	if len(broker.executed) != 0 {
		t.Errorf("broker executed %d orders, want 0 (gated)", len(broker.executed))
	}
	if len(result.Executions) != 0 {
		t.Errorf("executions = %d, want 0", len(result.Executions))
	}
}

func TestRunCycleFundsTrackedAcrossBatch(t *testing.T) {
	cfg := testConfig(t, `
universe: [BHP, RIO]
risk:
  overall: LOW
  max_exposure_pct: 100
`)
	broker := &fakeBroker{funds: 12_000}
	eng, _ := newTestEngine(t, cfg, Deps{
		News: &fakeNews{items: newsItems()},
		Analyst: &fakeAnalyst{recs: []types.Recommendation{
			buyRec("BHP"),
			buyRec("RIO"),
		}},
		Quotes: &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50, "RIO": 100})},
		Broker: broker,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.Intents) != 2 {
		t.Fatalf("intents = %d, want 2", len(result.Intents))
	}
	// First order consumes 10000 of the 12000 available; the second 10000
	// order no longer fits and must be gated.
	if len(broker.executed) != 1 {
		t.Fatalf("broker executed %d orders, want 1", len(broker.executed))
	}
	if broker.executed[0].Symbol != "BHP" {
		t.Errorf("executed %q first, want BHP (input order)", broker.executed[0].Symbol)
	}
}

func TestRunCycleSweepExecutesExits(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	broker := &fakeBroker{funds: 100_000}
	book := portfolio.NewBook(cfg)
	book.ApplyExecution(context.Background(), types.ExecutionResult{
		OrderID: "SEED", Status: types.StatusSimulated,
		Symbol: "BHP", Action: types.ActionBuy, Quantity: 100, Price: 100,
		ExecutedAt: time.Now(),
	})

	eng, _ := newTestEngine(t, cfg, Deps{
		News:    &fakeNews{},
		Analyst: &fakeAnalyst{},
		Quotes:  &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 90})}, // below 95 stop
		Broker:  broker,
		Book:    book,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(broker.executed) != 1 {
		t.Fatalf("broker executed %d orders, want 1 exit", len(broker.executed))
	}
	exit := broker.executed[0]
	if exit.Action != types.ActionSell || exit.Quantity != 100 || exit.Reason != "stop_loss" {
		t.Errorf("unexpected exit order: %+v", exit)
	}
	if book.Open() != 0 {
		t.Errorf("book open positions = %d, want 0 after stop", book.Open())
	}
	if len(result.Executions) != 1 {
		t.Errorf("executions = %d, want 1", len(result.Executions))
	}
	if len(result.Intents) != 1 || result.Intents[0].Reason != "stop_loss" {
		t.Errorf("exit intent missing from result: %+v", result.Intents)
	}
}

func TestRunCycleBrokerErrorWarns(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	eng, _ := newTestEngine(t, cfg, Deps{
		News:    &fakeNews{items: newsItems()},
		Analyst: &fakeAnalyst{recs: []types.Recommendation{buyRec("BHP")}},
		Quotes:  &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50})},
		Broker:  &fakeBroker{funds: 100_000, execErr: errors.New("venue timeout")},
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.Executions) != 0 {
		t.Errorf("executions = %d, want 0", len(result.Executions))
	}
	if !hasWarning(result, "order BUY BHP failed") {
		t.Errorf("warnings = %v, want broker failure recorded", result.Warnings)
	}
}

func TestRunCycleElevatedRiskAlerts(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	notifier := &fakeNotifier{}
	rec := types.Recommendation{
		Symbols:    []string{"BHP"},
		Action:     types.ActionBuy,
		Confidence: "HIGH",
		RiskLevel:  "HIGH",
		Reasoning:  "takeover speculation",
	}
	eng, _ := newTestEngine(t, cfg, Deps{
		News:     &fakeNews{items: newsItems()},
		Analyst:  &fakeAnalyst{recs: []types.Recommendation{rec}},
		Quotes:   &fakeQuotes{quotes: quoteMap(map[string]float64{"BHP": 50})},
		Broker:   &fakeBroker{funds: 100_000},
		Notifier: notifier,
	})

	result, err := eng.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.Executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(result.Executions))
	}
	if len(notifier.subjects) != 1 || !strings.Contains(notifier.subjects[0], "HIGH-risk order executed") {
		t.Errorf("alerts = %v, want one HIGH-risk alert", notifier.subjects)
	}
}

func TestRunCycleContextCancelled(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	eng, _ := newTestEngine(t, cfg, Deps{
		News: &fakeNews{items: newsItems()},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := eng.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("result is nil, want partial result")
	}
	if result.FinishedAt.IsZero() {
		t.Error("finished_at not stamped on cancellation")
	}
}

func TestSymbolSetIncludesHeldPositions(t *testing.T) {
	cfg := testConfig(t, baseYAML)
	book := portfolio.NewBook(cfg)
	book.ApplyExecution(context.Background(), types.ExecutionResult{
		OrderID: "SEED", Status: types.StatusSimulated,
		Symbol: "WES", Action: types.ActionBuy, Quantity: 10, Price: 60,
		ExecutedAt: time.Now(),
	})
	eng, _ := newTestEngine(t, cfg, Deps{Book: book})

	symbols := eng.symbolSet([]types.Recommendation{buyRec("CBA")})

	want := []string{"BHP", "RIO", "CBA", "WES"}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", symbols, want)
	}
	for i, symbol := range want {
		if symbols[i] != symbol {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], symbol)
		}
	}
}

func hasWarning(result *types.CycleResult, substr string) bool {
	for _, w := range result.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
