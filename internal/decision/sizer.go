package decision

import (
	"math"

	"asx-auto-trader/internal/risk"
	"asx-auto-trader/internal/types"
)

// defaultPrice is substituted when no valid quote exists for a symbol, so a
// gap in market data degrades sizing instead of dropping the trade.
const defaultPrice = 100.0

// positionSizer computes share quantities from the compounded multiplicative
// policy: the configured dollar ceiling scaled by overall market risk, the
// symbol's risk level and the recommendation confidence.
type positionSizer struct{}

func newPositionSizer() *positionSizer {
	return &positionSizer{}
}

// shares sizes one (recommendation, symbol) evaluation.
//
// allocation = maxPosition * overallFactor * symbolFactor * confidenceFactor
// quantity   = floor(allocation / price)
//
// price must already be resolved and positive; a non-positive price yields
// zero shares, which the orchestrator discards. Zero and negative quantities
// are never emitted as intents.
func (ps *positionSizer) shares(rec types.Recommendation, overallRisk string, maxPosition, price float64) (qty int, allocation float64) {
	overallFactor := risk.Factor(overallRisk)
	symbolFactor := risk.Factor(rec.RiskLevel)
	confidenceFactor := risk.ConfidenceFactor(rec.Confidence)

	allocation = maxPosition * overallFactor * symbolFactor * confidenceFactor
	if price <= 0 || allocation <= 0 {
		return 0, allocation
	}

	qty = int(math.Floor(allocation / price))
	return qty, allocation
}
