// Package analyst turns collected news into trade recommendations by asking
// an external model for a strict-JSON verdict. Provider implementations live
// in the openai, claude and noop subpackages; this package holds the prompt
// contract and the response parser they share.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/types"
)

// SystemPrompt is sent as the system message to every provider. Model output
// that strays from it is handled by ParseRecommendations, never trusted.
const SystemPrompt = "You are a disciplined equities analyst covering the Australian Securities Exchange (ASX). Output STRICT JSON only, no commentary."

// BuildPrompt renders the user message for one analysis call: the news items
// under review followed by the response schema the model must produce.
func BuildPrompt(items []types.NewsItem) string {
	var sb strings.Builder

	sb.WriteString("Review the ASX news items below and recommend trades.\n\nNews items:\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [id=%s] %s", i+1, item.ID, strings.TrimSpace(item.Title))
		if len(item.Symbols) > 0 {
			fmt.Fprintf(&sb, " (symbols: %s)", strings.Join(item.Symbols, ", "))
		}
		sb.WriteString("\n")
		if s := strings.TrimSpace(item.Summary); s != "" {
			fmt.Fprintf(&sb, "   %s\n", s)
		}
	}

	sb.WriteString(`
Respond ONLY with a JSON array, one object per recommendation:
[{"symbols":["BHP"],"action":"BUY","confidence":"HIGH","risk_level":"LOW","reasoning":"...","news_id":"..."}]

Rules:
- action is one of BUY, SELL, HOLD
- confidence is one of HIGH, MEDIUM, LOW
- risk_level is the downside risk of acting: LOW, MEDIUM, HIGH or EXTREME
- news_id echoes the id of the item the recommendation is based on
- cover every symbol the news gives a clear signal for; omit symbols with no signal
`)

	return sb.String()
}

// rawRecommendation mirrors the schema requested in BuildPrompt. Loose types
// are deliberate: model output is normalized field by field.
type rawRecommendation struct {
	Symbols    []string `json:"symbols"`
	Action     string   `json:"action"`
	Confidence string   `json:"confidence"`
	RiskLevel  string   `json:"risk_level"`
	Reasoning  string   `json:"reasoning"`
	NewsID     string   `json:"news_id"`
}

// ParseRecommendations extracts recommendations from raw model output. It
// tolerates markdown code fences, surrounding prose and a bare object instead
// of an array. Unparseable payloads yield an empty slice and a warning, never
// an error: a cycle degrades to no recommendations rather than aborting.
func ParseRecommendations(ctx context.Context, raw string) []types.Recommendation {
	text := stripCodeFence(strings.TrimSpace(raw))

	rows, ok := decodeRows(text)
	if !ok {
		logger.Warn(ctx, "Analyst response is not parseable JSON, dropping it",
			"preview", preview(text, 180),
		)
		return []types.Recommendation{}
	}

	now := time.Now()
	recs := make([]types.Recommendation, 0, len(rows))
	for _, row := range rows {
		rec := normalize(row, now)
		if len(rec.Symbols) == 0 {
			logger.Debug(ctx, "Dropping recommendation without symbols", "reasoning", preview(rec.Reasoning, 80))
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

// decodeRows tries, in order: a JSON array, an array embedded in surrounding
// text, a single object, and an object embedded in text.
func decodeRows(text string) ([]rawRecommendation, bool) {
	var rows []rawRecommendation
	if err := json.Unmarshal([]byte(text), &rows); err == nil {
		return rows, true
	}

	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &rows); err == nil {
			return rows, true
		}
	}

	var single rawRecommendation
	if err := json.Unmarshal([]byte(text), &single); err == nil && single.Action != "" {
		return []rawRecommendation{single}, true
	}

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &single); err == nil && single.Action != "" {
			return []rawRecommendation{single}, true
		}
	}

	return nil, false
}

// normalize maps one raw row onto a Recommendation. Unknown actions become
// HOLD so a misbehaving model can never push an order through.
func normalize(row rawRecommendation, now time.Time) types.Recommendation {
	rec := types.Recommendation{
		Action:     strings.ToUpper(strings.TrimSpace(row.Action)),
		Confidence: strings.ToUpper(strings.TrimSpace(row.Confidence)),
		RiskLevel:  strings.ToUpper(strings.TrimSpace(row.RiskLevel)),
		Reasoning:  strings.TrimSpace(row.Reasoning),
		NewsID:     strings.TrimSpace(row.NewsID),
		CreatedAt:  now,
	}

	switch rec.Action {
	case types.ActionBuy, types.ActionSell, types.ActionHold:
	default:
		rec.Action = types.ActionHold
	}

	for _, s := range row.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		rec.Symbols = append(rec.Symbols, s)
	}
	return rec
}

// stripCodeFence removes a single surrounding markdown fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
