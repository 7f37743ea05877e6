package risk

import (
	"asx-auto-trader/internal/ta"
	"asx-auto-trader/internal/types"
)

// Breadth thresholds: a quote counts as advancing or declining only when its
// day change clears this band, everything inside is flat.
const flatBandPct = 0.5

// ClassifyMarket derives the overall market risk level for a cycle from the
// quote batch: breadth (share of declining symbols) and dispersion (standard
// deviation of day changes). With no quotes at all it returns MEDIUM, acting
// as a neutral stance rather than an error.
func ClassifyMarket(quotes map[string]types.MarketQuote) string {
	if len(quotes) == 0 {
		return LevelMedium
	}

	changes := make([]float64, 0, len(quotes))
	var up, down int
	for _, q := range quotes {
		changes = append(changes, q.ChangePct)
		switch {
		case q.ChangePct > flatBandPct:
			up++
		case q.ChangePct < -flatBandPct:
			down++
		}
	}

	total := float64(len(quotes))
	downRatio := float64(down) / total
	upRatio := float64(up) / total
	dispersion := ta.StdDev(changes, len(changes))

	switch {
	case downRatio >= 0.8 || dispersion >= 3.0:
		return LevelExtreme
	case downRatio >= 0.6 || dispersion >= 2.0:
		return LevelHigh
	case upRatio >= 0.6 && dispersion < 1.0:
		return LevelLow
	default:
		return LevelMedium
	}
}
