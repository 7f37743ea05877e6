package decision

import (
	"testing"

	"asx-auto-trader/internal/types"
)

func rec(action, confidence, riskLevel string) types.Recommendation {
	return types.Recommendation{
		Symbols:    []string{"BHP"},
		Action:     action,
		Confidence: confidence,
		RiskLevel:  riskLevel,
	}
}

func TestFilterRejectsNonTradeableActions(t *testing.T) {
	tf := newTradeFilter()

	for _, action := range []string{"HOLD", "hold", "WAIT", "", "SHORT"} {
		ok, reason := tf.eligible(rec(action, "HIGH", "LOW"))
		if ok {
			t.Errorf("action %q should be rejected", action)
		}
		if reason != rejectNotTradeable {
			t.Errorf("action %q reason = %q, want %q", action, reason, rejectNotTradeable)
		}
	}
}

func TestFilterRejectsExtremeRiskUnconditionally(t *testing.T) {
	tf := newTradeFilter()

	for _, confidence := range []string{"HIGH", "MEDIUM", "LOW", ""} {
		ok, reason := tf.eligible(rec("BUY", confidence, "EXTREME"))
		if ok {
			t.Errorf("EXTREME risk with %q confidence should be rejected", confidence)
		}
		if reason != rejectExtremeRisk {
			t.Errorf("reason = %q, want %q", reason, rejectExtremeRisk)
		}
	}

	// Case should not matter
	if ok, _ := tf.eligible(rec("SELL", "HIGH", "extreme")); ok {
		t.Error("lowercase extreme should still be rejected")
	}
}

func TestFilterHighRiskNeedsHighConfidence(t *testing.T) {
	tf := newTradeFilter()

	if ok, _ := tf.eligible(rec("BUY", "HIGH", "HIGH")); !ok {
		t.Error("HIGH risk with HIGH confidence should be eligible")
	}
	if ok, _ := tf.eligible(rec("BUY", "high", "High")); !ok {
		t.Error("eligibility should ignore case")
	}

	for _, confidence := range []string{"MEDIUM", "LOW", "", "banana"} {
		ok, reason := tf.eligible(rec("BUY", confidence, "HIGH"))
		if ok {
			t.Errorf("HIGH risk with %q confidence should be rejected", confidence)
		}
		if reason != rejectHighRiskDoubt {
			t.Errorf("reason = %q, want %q", reason, rejectHighRiskDoubt)
		}
	}
}

func TestFilterAcceptsOrdinaryTrades(t *testing.T) {
	tf := newTradeFilter()

	cases := []types.Recommendation{
		rec("BUY", "LOW", "LOW"),
		rec("SELL", "MEDIUM", "MEDIUM"),
		rec("buy", "low", "medium"),
		// Unknown risk levels size like MEDIUM and pass the gate
		rec("BUY", "HIGH", "funky"),
	}
	for _, r := range cases {
		if ok, reason := tf.eligible(r); !ok {
			t.Errorf("recommendation %+v rejected with %q, want eligible", r, reason)
		}
	}
}
