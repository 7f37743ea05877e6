package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"asx-auto-trader/internal/analyst"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/trace"
	"asx-auto-trader/internal/types"
)

const (
	defaultEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion      = "2023-06-01"
)

type Analyst struct {
	cfg      *store.Config
	endpoint string
}

var _ interfaces.Analyst = (*Analyst)(nil)

// New builds a Claude-backed analyst. CLAUDE_API_ENDPOINT overrides the
// public messages URL for proxies and tests.
func New(cfg *store.Config) *Analyst {
	endpoint := defaultEndpoint
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Analyst{cfg: cfg, endpoint: endpoint}
}

func (a *Analyst) Analyze(ctx context.Context, items []types.NewsItem) ([]types.Recommendation, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if len(items) == 0 {
		return nil, nil
	}

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}

	reqBody := map[string]any{
		"model":  a.cfg.Analyst.Model,
		"system": analyst.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": analyst.BuildPrompt(items)},
		},
		"max_tokens":  a.cfg.Analyst.MaxTokens,
		"temperature": a.cfg.Analyst.Temperature,
	}

	bb, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(bb))
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("claude http %d: %s", resp.StatusCode, string(body))
	}

	respBytes, _ := io.ReadAll(resp.Body)
	return analyst.ParseRecommendations(ctx, extractContent(respBytes)), nil
}

// extractContent pulls the assistant text out of a messages API response.
// Proxies and gateways rewrap responses, so several shapes are tried before
// falling back to the raw body.
func extractContent(respBytes []byte) string {
	var msg struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBytes, &msg); err == nil && len(msg.Content) > 0 {
		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" || block.Type == "" {
				sb.WriteString(block.Text)
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			return s
		}
	}

	var anyResp map[string]any
	if err := json.Unmarshal(respBytes, &anyResp); err == nil {
		for _, k := range []string{"completion", "output", "output_text", "completion_text", "result"} {
			if s, ok := anyResp[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		if choices, ok := anyResp["choices"].([]any); ok && len(choices) > 0 {
			if c0, ok := choices[0].(map[string]any); ok {
				if mm, ok := c0["message"].(map[string]any); ok {
					if s, ok := mm["content"].(string); ok && strings.TrimSpace(s) != "" {
						return s
					}
				}
				if s, ok := c0["text"].(string); ok && strings.TrimSpace(s) != "" {
					return s
				}
			}
		}
	}

	return string(respBytes)
}
