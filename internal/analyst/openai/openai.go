package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"asx-auto-trader/internal/analyst"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

type Analyst struct {
	cfg      *store.Config
	endpoint string
}

var _ interfaces.Analyst = (*Analyst)(nil)

// New builds an OpenAI-backed analyst. OPENAI_API_ENDPOINT overrides the
// public chat completions URL for proxies and tests.
func New(cfg *store.Config) *Analyst {
	endpoint := defaultEndpoint
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Analyst{cfg: cfg, endpoint: endpoint}
}

func (a *Analyst) Analyze(ctx context.Context, items []types.NewsItem) ([]types.Recommendation, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if len(items) == 0 {
		return nil, nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": a.cfg.Analyst.Model,
		"messages": []map[string]string{
			{"role": "system", "content": analyst.SystemPrompt},
			{"role": "user", "content": analyst.BuildPrompt(items)},
		},
		"temperature": a.cfg.Analyst.Temperature,
		"max_tokens":  a.cfg.Analyst.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	if len(r.Choices) == 0 {
		return nil, errors.New("no choices")
	}

	content := strings.TrimSpace(r.Choices[0].Message.Content)
	return analyst.ParseRecommendations(ctx, content), nil
}
