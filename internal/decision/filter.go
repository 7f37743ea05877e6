package decision

import (
	"strings"

	"asx-auto-trader/internal/risk"
	"asx-auto-trader/internal/types"
)

// tradeFilter is the eligibility gate applied before any sizing happens.
// It is a pure predicate; rejection logging is the orchestrator's job.
type tradeFilter struct{}

func newTradeFilter() *tradeFilter {
	return &tradeFilter{}
}

// Rejection reasons surfaced in logs and decision records.
const (
	rejectNotTradeable  = "action_not_tradeable"
	rejectExtremeRisk   = "extreme_risk"
	rejectHighRiskDoubt = "high_risk_requires_high_confidence"
)

// eligible applies the gating rules in order:
// non BUY/SELL actions are never tradeable, EXTREME risk is rejected
// unconditionally, and HIGH risk requires HIGH confidence.
//
// Returns:
//   - ok: true when the recommendation may proceed to sizing
//   - reason: rejection reason when ok is false
func (tf *tradeFilter) eligible(rec types.Recommendation) (ok bool, reason string) {
	action := strings.ToUpper(strings.TrimSpace(rec.Action))
	if action != types.ActionBuy && action != types.ActionSell {
		return false, rejectNotTradeable
	}
	if risk.IsLevel(rec.RiskLevel, risk.LevelExtreme) {
		return false, rejectExtremeRisk
	}
	if risk.IsLevel(rec.RiskLevel, risk.LevelHigh) && !isHighConfidence(rec.Confidence) {
		return false, rejectHighRiskDoubt
	}
	return true, ""
}

func isHighConfidence(confidence string) bool {
	return strings.ToUpper(strings.TrimSpace(confidence)) == risk.ConfidenceHigh
}
