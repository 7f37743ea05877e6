package engine

import (
	"asx-auto-trader/internal/decision"
	"asx-auto-trader/internal/interfaces"
	"asx-auto-trader/internal/metrics"
	"asx-auto-trader/internal/notify"
	"asx-auto-trader/internal/persist"
	"asx-auto-trader/internal/portfolio"
	"asx-auto-trader/internal/store"
)

// Deps are the engine's collaborators. News, Analyst, Quotes, Broker and
// Book are required; Store, Notifier and Metrics may be nil and are replaced
// with inert defaults.
type Deps struct {
	News     interfaces.NewsCollector
	Analyst  interfaces.Analyst
	Quotes   interfaces.QuoteProvider
	Broker   interfaces.Broker
	Book     *portfolio.Book
	Store    *persist.Store
	Notifier interfaces.Notifier
	Metrics  *metrics.Registry
}

func New(cfg *store.Config, deps Deps) interfaces.Engine {
	if deps.Store == nil {
		deps.Store = &persist.Store{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	return &engine{
		cfg:      cfg,
		news:     deps.News,
		analyst:  deps.Analyst,
		quotes:   deps.Quotes,
		broker:   deps.Broker,
		book:     deps.Book,
		decide:   decision.New(),
		store:    deps.Store,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
	}
}
