package news

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/schedule"
	"asx-auto-trader/internal/types"
)

var defaultUniverse = []string{"BHP", "CBA", "NAB", "WBC", "ANZ", "RIO", "CSL", "WES", "TLS", "FMG"}

type headlineTemplate struct {
	kind     string
	headline string
	body     string
}

var headlineTemplates = []headlineTemplate{
	{
		kind:     "earnings",
		headline: "%s Reports Strong Quarterly Earnings",
		body:     "%s reported quarterly earnings above analyst expectations, with revenue up %.1f%% year over year on strong demand.",
	},
	{
		kind:     "earnings",
		headline: "%s Misses Earnings Expectations",
		body:     "%s reported disappointing quarterly results, with revenue down %.1f%% compared to the same period last year.",
	},
	{
		kind:     "acquisition",
		headline: "%s Acquires Competitor to Expand Market Share",
		body:     "%s announced it has completed an acquisition worth $%.0f million, expanding its market presence.",
	},
	{
		kind:     "management",
		headline: "Chief Executive of %s Steps Down",
		body:     "The chief executive of %s has announced plans to step down after %.0f years. The board has begun a search for a successor.",
	},
	{
		kind:     "analyst",
		headline: "Analysts Upgrade %s to Buy",
		body:     "Analysts have upgraded %s from Hold to Buy, citing improved growth prospects. The price target was raised to $%.2f.",
	},
	{
		kind:     "analyst",
		headline: "Analysts Downgrade %s on Growth Concerns",
		body:     "Analysts have downgraded %s from Buy to Hold, citing competitive pressures. The price target was lowered to $%.2f.",
	},
}

// simCollector fabricates a day's worth of headlines over the universe. The
// generator is seeded from the trading day and the symbol set, so repeated
// collects inside one day produce the same tape.
type simCollector struct {
	universe []string
}

var _ interfaces.NewsCollector = (*simCollector)(nil)

func NewSimCollector(universe []string) interfaces.NewsCollector {
	return &simCollector{universe: universe}
}

func (sc *simCollector) Collect(ctx context.Context, symbols []string, limit int) ([]types.NewsItem, error) {
	if len(symbols) == 0 {
		symbols = sc.universe
	}
	if len(symbols) == 0 {
		symbols = defaultUniverse
	}
	if limit <= 0 {
		limit = 20
	}

	now := schedule.Now()
	day := now.Format("2006-01-02")
	rng := rand.New(rand.NewSource(int64(hash32(day + "|" + strings.Join(symbols, ",")))))

	items := make([]types.NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		tpl := headlineTemplates[rng.Intn(len(headlineTemplates))]
		symbol := symbols[rng.Intn(len(symbols))]

		var amount float64
		switch tpl.kind {
		case "earnings":
			amount = 2 + rng.Float64()*13 // percent
		case "acquisition":
			amount = float64(100 + rng.Intn(1900)) // $M
		case "management":
			amount = float64(3 + rng.Intn(8)) // years
		default:
			amount = 20 + rng.Float64()*130 // price target
		}

		items = append(items, types.NewsItem{
			ID:          fmt.Sprintf("sim-%s-%d", day, i),
			Title:       fmt.Sprintf(tpl.headline, symbol),
			Summary:     fmt.Sprintf(tpl.body, symbol, amount),
			Source:      "SIM",
			Symbols:     []string{symbol},
			PublishedAt: now.Add(-time.Duration(rng.Intn(24*60)) * time.Minute),
		})
	}

	logger.Info(ctx, "Sim news generated", "items", len(items), "day", day)
	return items, nil
}
