package types

import "time"

// Recommendation is one analyst signal. It may name several symbols; the
// decision stage expands it to one evaluation per symbol. Field values come
// from an external model and are normalized, never trusted, downstream.
type Recommendation struct {
	Symbols    []string  `json:"symbols"`
	Action     string    `json:"action"`
	Confidence string    `json:"confidence"`
	RiskLevel  string    `json:"risk_level"`
	Reasoning  string    `json:"reasoning,omitempty"`
	NewsID     string    `json:"news_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type MarketQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	ChangePct float64   `json:"change_pct"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderIntent is a sized, filtered trade candidate. Quantity is always > 0
// and EstimatedCost always equals Quantity * Price for any intent handed to
// the execution stage.
type OrderIntent struct {
	Symbol        string  `json:"symbol"`
	Action        string  `json:"action"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	EstimatedCost float64 `json:"estimated_cost"`
	Confidence    string  `json:"confidence"`
	RiskLevel     string  `json:"risk_level"`
	NewsID        string  `json:"news_id,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// AccountContext carries the per-cycle sizing inputs. DefaultPrice of 0 means
// the built-in fallback price is used when a quote is missing or invalid.
type AccountContext struct {
	MaxPositionSize float64 `json:"max_position_size"`
	OverallRisk     string  `json:"overall_risk"`
	DefaultPrice    float64 `json:"default_price,omitempty"`
}

type ExecutionResult struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Execution statuses reported by brokers.
const (
	StatusSimulated = "SIMULATED"
	StatusSuccess   = "SUCCESS"
	StatusError     = "ERROR"
)

// Recommendation actions. HOLD never reaches the execution stage.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	Symbols     []string  `json:"symbols,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// CycleResult summarizes one pass of the sequential workflow. It is what the
// trader binary prints and what run history persists.
type CycleResult struct {
	CycleID         string            `json:"cycle_id"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	OverallRisk     string            `json:"overall_risk"`
	NewsCount       int               `json:"news_count"`
	Recommendations int               `json:"recommendations"`
	QuoteCount      int               `json:"quote_count"`
	Intents         []OrderIntent     `json:"intents"`
	Executions      []ExecutionResult `json:"executions"`
	Warnings        []string          `json:"warnings,omitempty"`
}
