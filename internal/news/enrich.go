package news

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"asx-auto-trader/internal/api"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/types"
)

const (
	// Summaries shorter than this get a full-article fetch.
	minSummaryLen = 100
	// Cap on enriched body length so prompts stay bounded.
	maxBodyLen = 2000
)

// articleEnricher fetches article pages and extracts readable body text.
type articleEnricher struct {
	client *api.Client
}

func newArticleEnricher(timeout time.Duration) *articleEnricher {
	return &articleEnricher{
		client: api.NewClient(
			api.WithTimeout(timeout),
			api.WithLogging(false),
			api.WithRateLimit(20),
		),
	}
}

// enrich replaces thin summaries on the first topN items with extracted
// article body text. Fetch failures leave the original summary in place.
func (ae *articleEnricher) enrich(ctx context.Context, items []types.NewsItem, topN int) []types.NewsItem {
	for i := range items {
		if i >= topN {
			break
		}
		if len(items[i].Summary) >= minSummaryLen || items[i].URL == "" {
			continue
		}
		if body := ae.fetchBody(ctx, items[i].URL); body != "" {
			items[i].Summary = body
		}
	}
	return items
}

func (ae *articleEnricher) fetchBody(ctx context.Context, articleURL string) string {
	resp, err := ae.client.GET(ctx, articleURL, api.BrowserHeaders())
	if err != nil {
		logger.Debug(ctx, "Article fetch failed", "url", articleURL, "error", err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		logger.Debug(ctx, "Article parse failed", "url", articleURL, "error", err)
		return ""
	}

	var paragraphs []string
	doc.Find("article p, div.article-body p, div.story-content p, main p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})

	body := strings.Join(paragraphs, "\n\n")
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen]
	}
	return body
}
