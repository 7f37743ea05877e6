package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryIsSelfContained(t *testing.T) {
	// Two registries must not collide; each owns its own registration set.
	a := NewRegistry()
	b := NewRegistry()

	a.RecordCycle("ok", 1.5)
	a.RecordRecommendation("BUY")
	a.RecordOrder("SIMULATED")
	a.IntentsEmitted.Inc()
	a.QuoteFallbacks.Inc()
	a.NewsItems.Add(3)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`asx_trader_cycles_total{status="ok"} 1`,
		`asx_trader_recommendations_total{action="BUY"} 1`,
		`asx_trader_orders_total{status="SIMULATED"} 1`,
		`asx_trader_order_intents_total 1`,
		`asx_trader_quote_fallbacks_total 1`,
		`asx_trader_news_items_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}

	rec = httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), `asx_trader_cycles_total{status="ok"} 1`) {
		t.Error("registry b should not see registry a's counts")
	}
}
