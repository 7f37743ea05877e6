package news

import "regexp"

var symbolPattern = regexp.MustCompile(`\b[A-Z]{3}\b`)

// Three-letter words that show up in financial headlines but are never ASX
// tickers worth trading on a headline mention.
var symbolStopwords = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "BUT": true, "NOT": true,
	"NEW": true, "NOW": true, "HAS": true, "HAD": true, "WHO": true,
	"WHY": true, "HOW": true, "ALL": true, "ASX": true, "CEO": true,
	"CFO": true, "IPO": true, "GDP": true, "RBA": true, "USA": true,
	"ETF": true, "AUD": true, "USD": true, "EPS": true, "AGM": true,
}

// ExtractSymbols pulls candidate ASX tickers out of headline text: every
// three-capital-letter word minus the stopword set, first occurrence order,
// deduplicated, capped at limit (0 means no cap).
func ExtractSymbols(text string, limit int) []string {
	matches := symbolPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	var symbols []string
	for _, m := range matches {
		if symbolStopwords[m] || seen[m] {
			continue
		}
		seen[m] = true
		symbols = append(symbols, m)
		if limit > 0 && len(symbols) >= limit {
			break
		}
	}
	return symbols
}
