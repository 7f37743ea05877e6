// Package metrics exposes the trader's Prometheus instruments. Each Registry
// owns a dedicated prometheus.Registry, so constructing one per process (or
// per test) never collides with prior registrations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all instruments the engine records into.
type Registry struct {
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	Recommendations *prometheus.CounterVec
	IntentsEmitted  prometheus.Counter
	Orders          *prometheus.CounterVec
	QuoteFallbacks  prometheus.Counter
	NewsItems       prometheus.Counter

	reg *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asx_trader_cycles_total",
				Help: "Total trading cycles executed, by outcome",
			},
			[]string{"status"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "asx_trader_cycle_duration_seconds",
				Help:    "Wall-clock duration of a full trading cycle",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		Recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asx_trader_recommendations_total",
				Help: "Analyst recommendations received, by action",
			},
			[]string{"action"},
		),
		IntentsEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "asx_trader_order_intents_total",
				Help: "Order intents emitted by the decision core",
			},
		),
		Orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asx_trader_orders_total",
				Help: "Orders pushed to the broker, by execution status",
			},
			[]string{"status"},
		),
		QuoteFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "asx_trader_quote_fallbacks_total",
				Help: "Quote lookups that fell back to the sim backend",
			},
		),
		NewsItems: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "asx_trader_news_items_total",
				Help: "News items collected",
			},
		),

		reg: prometheus.NewRegistry(),
	}

	r.reg.MustRegister(
		r.CyclesTotal,
		r.CycleDuration,
		r.Recommendations,
		r.IntentsEmitted,
		r.Orders,
		r.QuoteFallbacks,
		r.NewsItems,
	)

	return r
}

// Handler serves this registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// RecordCycle counts one finished cycle and observes its duration.
func (r *Registry) RecordCycle(status string, seconds float64) {
	r.CyclesTotal.WithLabelValues(status).Inc()
	r.CycleDuration.Observe(seconds)
}

func (r *Registry) RecordRecommendation(action string) {
	r.Recommendations.WithLabelValues(action).Inc()
}

func (r *Registry) RecordOrder(status string) {
	r.Orders.WithLabelValues(status).Inc()
}
