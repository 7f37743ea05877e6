package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string   `yaml:"mode"`
	Exchange string   `yaml:"exchange"`
	Universe []string `yaml:"universe"`
	Account  struct {
		MaxPositionSize float64 `yaml:"max_position_size"`
		DefaultPrice    float64 `yaml:"default_price"`
		Currency        string  `yaml:"currency"`
	} `yaml:"account"`
	Risk struct {
		Overall          string  `yaml:"overall"`
		MaxOpenPositions int     `yaml:"max_open_positions"`
		MaxExposurePct   float64 `yaml:"max_exposure_pct"`
		StopLossPct      float64 `yaml:"stop_loss_pct"`
		TakeProfitPct    float64 `yaml:"take_profit_pct"`
		TrailingStop     bool    `yaml:"trailing_stop"`
	} `yaml:"risk"`
	News struct {
		Provider     string `yaml:"provider"`
		MaxItems     int    `yaml:"max_items"`
		EnrichTopN   int    `yaml:"enrich_top_n"`
		CacheTTLMins int    `yaml:"cache_ttl_minutes"`
	} `yaml:"news"`
	Analyst struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"analyst"`
	MarketData struct {
		Provider        string `yaml:"provider"`
		Workers         int    `yaml:"workers"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		Breaker         struct {
			MaxRequests     uint32  `yaml:"max_requests"`
			IntervalSeconds int     `yaml:"interval_seconds"`
			TimeoutSeconds  int     `yaml:"timeout_seconds"`
			FailureRate     float64 `yaml:"failure_rate"`
		} `yaml:"breaker"`
	} `yaml:"marketdata"`
	Broker struct {
		Provider     string  `yaml:"provider"`
		Demo         bool    `yaml:"demo"`
		FeeBufferPct float64 `yaml:"fee_buffer_pct"`
	} `yaml:"broker"`
	Database struct {
		DSN            string `yaml:"dsn"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"database"`
	Ops struct {
		Listen string `yaml:"listen"`
	} `yaml:"ops"`
	Schedule struct {
		CycleMinutes    int  `yaml:"cycle_minutes"`
		MarketHoursOnly bool `yaml:"market_hours_only"`
	} `yaml:"schedule"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if c.Account.MaxPositionSize <= 0 {
		return fmt.Errorf("account.max_position_size must be positive, got %.2f", c.Account.MaxPositionSize)
	}
	switch strings.ToUpper(c.Risk.Overall) {
	case "", "LOW", "MEDIUM", "HIGH", "EXTREME":
	default:
		return fmt.Errorf("invalid risk.overall '%s': must be 'LOW', 'MEDIUM', 'HIGH', 'EXTREME' or empty for per-cycle classification", c.Risk.Overall)
	}
	if c.Risk.MaxExposurePct <= 0 || c.Risk.MaxExposurePct > 100 {
		return fmt.Errorf("risk.max_exposure_pct must be between 0-100, got %.2f", c.Risk.MaxExposurePct)
	}
	if c.News.Provider != "RSS" && c.News.Provider != "SIM" {
		return fmt.Errorf("invalid news.provider '%s': must be 'RSS' or 'SIM'", c.News.Provider)
	}
	if c.Analyst.Provider != "OPENAI" && c.Analyst.Provider != "CLAUDE" && c.Analyst.Provider != "NOOP" {
		return fmt.Errorf("invalid analyst.provider '%s': must be 'OPENAI', 'CLAUDE' or 'NOOP'", c.Analyst.Provider)
	}
	if c.MarketData.Provider != "YAHOO" && c.MarketData.Provider != "SIM" {
		return fmt.Errorf("invalid marketdata.provider '%s': must be 'YAHOO' or 'SIM'", c.MarketData.Provider)
	}
	if c.Broker.Provider != "IG" && c.Broker.Provider != "SIM" {
		return fmt.Errorf("invalid broker.provider '%s': must be 'IG' or 'SIM'", c.Broker.Provider)
	}
	if c.Broker.Provider == "IG" && c.Mode != "LIVE" {
		return errors.New("broker.provider 'IG' requires mode 'LIVE'")
	}
	if c.Schedule.CycleMinutes <= 0 {
		return fmt.Errorf("schedule.cycle_minutes must be positive, got %d", c.Schedule.CycleMinutes)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Exchange == "" {
		c.Exchange = "ASX"
	}
	if c.Account.MaxPositionSize == 0 {
		c.Account.MaxPositionSize = 10000
	}
	if c.Account.DefaultPrice == 0 {
		c.Account.DefaultPrice = 100
	}
	if c.Account.Currency == "" {
		c.Account.Currency = "AUD"
	}
	if c.Risk.MaxOpenPositions == 0 {
		c.Risk.MaxOpenPositions = 10
	}
	if c.Risk.MaxExposurePct == 0 {
		c.Risk.MaxExposurePct = 20
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = 5
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = 10
	}
	if c.News.Provider == "" {
		c.News.Provider = "SIM"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 20
	}
	if c.News.EnrichTopN == 0 {
		c.News.EnrichTopN = 3
	}
	if c.News.CacheTTLMins == 0 {
		c.News.CacheTTLMins = 10
	}
	if c.Analyst.Provider == "" {
		c.Analyst.Provider = "NOOP"
	}
	if c.Analyst.Model == "" {
		c.Analyst.Model = "gpt-4o-mini"
	}
	if c.Analyst.MaxTokens == 0 {
		c.Analyst.MaxTokens = 1024
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "SIM"
	}
	if c.MarketData.Workers == 0 {
		c.MarketData.Workers = 8
	}
	if c.MarketData.Workers > 20 {
		c.MarketData.Workers = 20
	}
	if c.MarketData.TimeoutSeconds == 0 {
		c.MarketData.TimeoutSeconds = 10
	}
	if c.MarketData.CacheTTLSeconds == 0 {
		c.MarketData.CacheTTLSeconds = 60
	}
	if c.MarketData.Breaker.MaxRequests == 0 {
		c.MarketData.Breaker.MaxRequests = 3
	}
	if c.MarketData.Breaker.IntervalSeconds == 0 {
		c.MarketData.Breaker.IntervalSeconds = 60
	}
	if c.MarketData.Breaker.TimeoutSeconds == 0 {
		c.MarketData.Breaker.TimeoutSeconds = 30
	}
	if c.MarketData.Breaker.FailureRate == 0 {
		c.MarketData.Breaker.FailureRate = 0.6
	}
	if c.Broker.Provider == "" {
		c.Broker.Provider = "SIM"
	}
	if c.Broker.FeeBufferPct == 0 {
		c.Broker.FeeBufferPct = 5
	}
	if c.Database.TimeoutSeconds == 0 {
		c.Database.TimeoutSeconds = 5
	}
	if c.Ops.Listen == "" {
		c.Ops.Listen = ":9614"
	}
	if c.Schedule.CycleMinutes == 0 {
		c.Schedule.CycleMinutes = 90
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
