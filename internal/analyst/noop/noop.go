// Package noop provides the analyst used when no provider is configured.
// Every symbol the news mentions gets a HOLD, so a cycle runs end to end
// without ever producing an order.
package noop

import (
	"context"
	"time"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/types"
)

type Analyst struct{}

var _ interfaces.Analyst = (*Analyst)(nil)

func New() *Analyst {
	return &Analyst{}
}

func (a *Analyst) Analyze(_ context.Context, items []types.NewsItem) ([]types.Recommendation, error) {
	now := time.Now()
	seen := make(map[string]bool)
	var recs []types.Recommendation

	for _, item := range items {
		for _, sym := range item.Symbols {
			if seen[sym] {
				continue
			}
			seen[sym] = true
			recs = append(recs, types.Recommendation{
				Symbols:    []string{sym},
				Action:     types.ActionHold,
				Confidence: "LOW",
				RiskLevel:  "MEDIUM",
				Reasoning:  "noop analyst",
				NewsID:     item.ID,
				CreatedAt:  now,
			})
		}
	}
	return recs, nil
}
