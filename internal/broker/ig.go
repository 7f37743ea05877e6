package broker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"asx-auto-trader/internal/api"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

const (
	igDemoBaseURL = "https://demo-api.ig.com/gateway/deal"
	igLiveBaseURL = "https://api.ig.com/gateway/deal"
)

// igBroker drives the IG Markets REST API. Session tokens (CST and
// X-SECURITY-TOKEN) come back as headers from POST /session and must
// accompany every later call; the broker re-logs-in when they are missing.
type igBroker struct {
	client    *api.Client
	baseURL   string
	apiKey    string
	username  string
	password  string
	feeBuffer float64

	mu      sync.Mutex
	cst     string
	token   string
	balance float64
	epics   map[string]string
}

var _ interfaces.Broker = (*igBroker)(nil)

// NewIG builds the IG Markets broker from config and environment
// credentials (IG_API_KEY, IG_USERNAME, IG_PASSWORD). IG_API_ENDPOINT
// overrides the base URL for proxies and tests.
func NewIG(cfg *store.Config) *igBroker {
	base := igLiveBaseURL
	if cfg.Broker.Demo {
		base = igDemoBaseURL
	}
	if ep := os.Getenv("IG_API_ENDPOINT"); ep != "" {
		base = ep
	}

	return &igBroker{
		client: api.NewClient(
			api.WithTimeout(30*time.Second),
			api.WithLogging(true),
		),
		baseURL:   base,
		apiKey:    os.Getenv("IG_API_KEY"),
		username:  os.Getenv("IG_USERNAME"),
		password:  os.Getenv("IG_PASSWORD"),
		feeBuffer: cfg.Broker.FeeBufferPct / 100,
		epics:     make(map[string]string),
	}
}

func (b *igBroker) Name() string { return "ig" }

// login opens an IG session. Tokens live in response headers, not the body.
func (b *igBroker) login(ctx context.Context) error {
	if b.apiKey == "" || b.username == "" || b.password == "" {
		return errors.New("IG credentials missing (IG_API_KEY, IG_USERNAME, IG_PASSWORD)")
	}

	resp, err := b.client.POST(ctx, b.baseURL+"/session", map[string]any{
		"identifier":        b.username,
		"password":          b.password,
		"encryptedPassword": false,
	}, map[string]string{
		"X-IG-API-KEY": b.apiKey,
		"Version":      "2",
	})
	if err != nil {
		return fmt.Errorf("ig session: %w", err)
	}

	cst := resp.Headers.Get("CST")
	token := resp.Headers.Get("X-SECURITY-TOKEN")
	if cst == "" || token == "" {
		return errors.New("ig session: missing CST/X-SECURITY-TOKEN headers")
	}

	b.mu.Lock()
	b.cst = cst
	b.token = token
	b.mu.Unlock()

	logger.Info(ctx, "Logged in to IG API")
	return nil
}

// authHeaders returns the per-call auth header set, logging in first if no
// session is held.
func (b *igBroker) authHeaders(ctx context.Context) (map[string]string, error) {
	b.mu.Lock()
	cst, token := b.cst, b.token
	b.mu.Unlock()

	if cst == "" || token == "" {
		if err := b.login(ctx); err != nil {
			return nil, err
		}
		b.mu.Lock()
		cst, token = b.cst, b.token
		b.mu.Unlock()
	}

	return map[string]string{
		"X-IG-API-KEY":     b.apiKey,
		"CST":              cst,
		"X-SECURITY-TOKEN": token,
	}, nil
}

// Funds returns the available balance of the preferred account.
func (b *igBroker) Funds(ctx context.Context) (float64, error) {
	headers, err := b.authHeaders(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := b.client.GET(ctx, b.baseURL+"/accounts", headers)
	if err != nil {
		return 0, fmt.Errorf("ig accounts: %w", err)
	}

	var payload struct {
		Accounts []struct {
			AccountID string `json:"accountId"`
			Preferred bool   `json:"preferred"`
			Balance   struct {
				Available float64 `json:"available"`
				Balance   float64 `json:"balance"`
				Deposit   float64 `json:"deposit"`
			} `json:"balance"`
		} `json:"accounts"`
	}
	if err := resp.ParseJSON(&payload); err != nil {
		return 0, fmt.Errorf("ig accounts: %w", err)
	}
	if len(payload.Accounts) == 0 {
		return 0, errors.New("ig accounts: no accounts returned")
	}

	account := payload.Accounts[0]
	for _, a := range payload.Accounts {
		if a.Preferred {
			account = a
			break
		}
	}

	funds := account.Balance.Available
	if funds == 0 {
		funds = account.Balance.Balance
	}
	if funds == 0 {
		funds = account.Balance.Deposit
	}

	b.mu.Lock()
	b.balance = funds
	b.mu.Unlock()

	logger.Debug(ctx, "IG account balance refreshed",
		"account_id", account.AccountID,
		"available", funds,
	)
	return funds, nil
}

// resolveEpic maps an ASX symbol to an IG epic via market search. ASX codes
// are searched with the .AU suffix IG uses for Australian listings. The
// second return value is the current offer price, 0 when IG omits it.
func (b *igBroker) resolveEpic(ctx context.Context, symbol string) (string, float64, error) {
	b.mu.Lock()
	if epic, ok := b.epics[symbol]; ok {
		b.mu.Unlock()
		return epic, 0, nil
	}
	b.mu.Unlock()

	headers, err := b.authHeaders(ctx)
	if err != nil {
		return "", 0, err
	}

	term := symbol
	if len(term) <= 3 && !strings.Contains(term, ".") {
		term += ".AU"
	}

	resp, err := b.client.GET(ctx, b.baseURL+"/markets?searchTerm="+term, headers)
	if err != nil {
		return "", 0, fmt.Errorf("ig market search: %w", err)
	}

	var payload struct {
		Markets []struct {
			Epic                     string  `json:"epic"`
			InstrumentName           string  `json:"instrumentName"`
			Offer                    float64 `json:"offer"`
			StreamingPricesAvailable bool    `json:"streamingPricesAvailable"`
		} `json:"markets"`
	}
	if err := resp.ParseJSON(&payload); err != nil {
		return "", 0, fmt.Errorf("ig market search: %w", err)
	}

	for _, m := range payload.Markets {
		if !m.StreamingPricesAvailable {
			continue
		}
		if strings.HasSuffix(m.Epic, symbol+".AU") || strings.HasPrefix(m.InstrumentName, symbol) {
			b.mu.Lock()
			b.epics[symbol] = m.Epic
			b.mu.Unlock()
			return m.Epic, m.Offer, nil
		}
	}
	return "", 0, fmt.Errorf("no IG market found for symbol %s", symbol)
}

// ExecuteOrder places a FILL_OR_KILL market order. Business rejections
// (insufficient funds, unknown market) come back as an ERROR result with a
// nil error; transport and auth failures return an error.
func (b *igBroker) ExecuteOrder(ctx context.Context, intent types.OrderIntent) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "ig-place-order")
	defer span.End()

	reject := func(reason string) types.ExecutionResult {
		return types.ExecutionResult{
			Status:     types.StatusError,
			Message:    reason,
			Symbol:     intent.Symbol,
			Action:     intent.Action,
			Quantity:   intent.Quantity,
			Price:      intent.Price,
			ExecutedAt: time.Now(),
		}
	}

	// SELL frees funds, only BUY needs the balance gate
	if intent.Action == types.ActionBuy {
		funds, err := b.Funds(ctx)
		if err != nil {
			return types.ExecutionResult{}, err
		}
		required := intent.EstimatedCost * (1 + b.feeBuffer)
		if required > funds {
			logger.Risk(ctx, intent.Symbol, "insufficient_funds",
				"required", required,
				"available", funds,
			)
			return reject(fmt.Sprintf("insufficient funds: required %.2f, available %.2f", required, funds)), nil
		}
	}

	epic, _, err := b.resolveEpic(ctx, intent.Symbol)
	if err != nil {
		logger.Warn(ctx, "IG epic resolution failed", "symbol", intent.Symbol, "error", err)
		return reject(err.Error()), nil
	}

	headers, err := b.authHeaders(ctx)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	headers["Version"] = "2"

	resp, err := b.client.POST(ctx, b.baseURL+"/positions/otc", map[string]string{
		"epic":           epic,
		"direction":      intent.Action,
		"size":           strconv.Itoa(intent.Quantity),
		"orderType":      "MARKET",
		"timeInForce":    "FILL_OR_KILL",
		"guaranteedStop": "false",
		"forceOpen":      "true",
	}, headers)
	if err != nil {
		return types.ExecutionResult{}, fmt.Errorf("ig place order: %w", err)
	}

	var placed struct {
		DealReference string `json:"dealReference"`
	}
	if err := resp.ParseJSON(&placed); err != nil {
		return types.ExecutionResult{}, fmt.Errorf("ig place order: %w", err)
	}

	result := types.ExecutionResult{
		OrderID:    placed.DealReference,
		Status:     types.StatusSuccess,
		Symbol:     intent.Symbol,
		Action:     intent.Action,
		Quantity:   intent.Quantity,
		Price:      intent.Price,
		ExecutedAt: time.Now(),
	}

	logger.Trade(ctx, intent.Symbol, intent.Action, intent.Quantity, intent.Price, result.OrderID,
		"epic", epic,
	)
	return result, nil
}
