// Package news collects headlines the analyst reasons over. The RSS
// collector reads Google News per symbol; the sim collector fabricates a
// plausible tape for offline runs. Both return the same NewsItem shape.
package news

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/store"
	"asx-auto-trader/internal/types"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Per-collect ceilings, mirroring the feed's tolerance for bursts.
	maxSymbolQueries  = 5
	perSymbolItems    = 5
	maxSymbolsPerItem = 3
)

// New builds the collector selected by config.
func New(cfg *store.Config) interfaces.NewsCollector {
	if strings.ToUpper(cfg.News.Provider) == "SIM" {
		return NewSimCollector(cfg.Universe)
	}
	return NewRSSCollector(cfg)
}

// rssCollector reads Google News RSS search feeds, one query per symbol plus
// one market-wide query, deduplicates and enriches the top items.
type rssCollector struct {
	timeout    time.Duration
	feedDelay  time.Duration
	enrichTopN int
	cache      *itemCache
	enricher   *articleEnricher
}

var _ interfaces.NewsCollector = (*rssCollector)(nil)

func NewRSSCollector(cfg *store.Config) interfaces.NewsCollector {
	timeout := 15 * time.Second
	return &rssCollector{
		timeout:    timeout,
		feedDelay:  1 * time.Second,
		enrichTopN: cfg.News.EnrichTopN,
		cache:      newItemCache(time.Duration(cfg.News.CacheTTLMins) * time.Minute),
		enricher:   newArticleEnricher(timeout),
	}
}

func (rc *rssCollector) Collect(ctx context.Context, symbols []string, limit int) ([]types.NewsItem, error) {
	if limit <= 0 {
		limit = 20
	}

	key := strings.Join(symbols, ",") + "#" + fmt.Sprint(limit)
	if cached, ok := rc.cache.get(key); ok {
		logger.Info(ctx, "Using cached news items", "key", key, "items", len(cached))
		return cached, nil
	}

	var items []types.NewsItem
	queries := symbols
	if len(queries) > maxSymbolQueries {
		queries = queries[:maxSymbolQueries]
	}
	for _, symbol := range queries {
		items = append(items, rc.fetchFeed(ctx, "ASX:"+symbol, perSymbolItems, []string{symbol})...)
	}

	// Market-wide sweep; symbols for these items come from headline text.
	items = append(items, rc.fetchFeed(ctx, "ASX", limit, nil)...)

	items = dedupeByID(items, limit)
	if len(items) == 0 {
		return nil, fmt.Errorf("no news items collected for %v", symbols)
	}

	items = rc.enricher.enrich(ctx, items, rc.enrichTopN)
	rc.cache.set(key, items)

	logger.Info(ctx, "News collection completed", "items", len(items), "symbols", len(symbols))
	return items, nil
}

// fetchFeed pulls one RSS search feed. knownSymbols pins the symbol set for
// symbol-scoped queries; market-wide queries extract symbols from the text.
func (rc *rssCollector) fetchFeed(ctx context.Context, query string, limit int, knownSymbols []string) []types.NewsItem {
	items := make([]types.NewsItem, 0, limit)

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com"),
	)
	c.SetRequestTimeout(rc.timeout)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: rc.feedDelay})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	idx := 0
	c.OnXML("//item", func(e *colly.XMLElement) {
		if len(items) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText("title"))
		if title == "" {
			return
		}
		summary := stripHTML(e.ChildText("description"))

		itemSymbols := knownSymbols
		if len(itemSymbols) == 0 {
			itemSymbols = ExtractSymbols(title+" "+summary, maxSymbolsPerItem)
		}

		items = append(items, types.NewsItem{
			ID:          feedItemID(query, idx, title),
			Title:       title,
			Summary:     summary,
			Source:      "Google News",
			URL:         strings.TrimSpace(e.ChildText("link")),
			Symbols:     itemSymbols,
			PublishedAt: parsePubDate(e.ChildText("pubDate")),
		})
		idx++
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "News feed request failed", "query", query, "error", err)
	})

	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-AU&gl=AU&ceid=AU:en", url.QueryEscape(query))
	if err := c.Visit(feedURL); err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch news feed", err, "query", query)
		return items
	}
	c.Wait()

	return items
}

func dedupeByID(items []types.NewsItem, limit int) []types.NewsItem {
	seen := make(map[string]bool, len(items))
	out := make([]types.NewsItem, 0, limit)
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func feedItemID(query string, idx int, title string) string {
	tag := strings.TrimPrefix(query, "ASX:")
	return fmt.Sprintf("google-%s-%d-%x", tag, idx, hash32(title))
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// stripHTML flattens the feed's HTML description to plain text.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
