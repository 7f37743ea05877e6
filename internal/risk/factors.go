package risk

import "strings"

// Discrete risk levels for a symbol or for the market as a whole.
const (
	LevelLow     = "LOW"
	LevelMedium  = "MEDIUM"
	LevelHigh    = "HIGH"
	LevelExtreme = "EXTREME"
)

// Confidence grades attached to recommendations.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Scaling factors per risk level. Unrecognized input scales like MEDIUM;
// recommendation fields come from a language model and are never trusted to
// be well formed.
const (
	factorLow     = 1.0
	factorMedium  = 0.7
	factorHigh    = 0.3
	factorExtreme = 0.1

	confidenceFactorHigh    = 1.0
	confidenceFactorMedium  = 0.7
	confidenceFactorLow     = 0.3
	confidenceFactorUnknown = 0.5
)

// Factor maps a risk level to its position-size scaling factor.
// Lookup is case-insensitive; unknown or empty levels get the MEDIUM factor.
func Factor(level string) float64 {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelLow:
		return factorLow
	case LevelMedium:
		return factorMedium
	case LevelHigh:
		return factorHigh
	case LevelExtreme:
		return factorExtreme
	default:
		return factorMedium
	}
}

// ConfidenceFactor maps a confidence grade to its scaling factor.
// Lookup is case-insensitive; unknown or empty grades get 0.5.
func ConfidenceFactor(confidence string) float64 {
	switch strings.ToUpper(strings.TrimSpace(confidence)) {
	case ConfidenceHigh:
		return confidenceFactorHigh
	case ConfidenceMedium:
		return confidenceFactorMedium
	case ConfidenceLow:
		return confidenceFactorLow
	default:
		return confidenceFactorUnknown
	}
}

// NormalizeLevel returns the canonical form of a risk level. Unknown input
// normalizes to MEDIUM, matching the factor table's default.
func NormalizeLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelLow:
		return LevelLow
	case LevelMedium:
		return LevelMedium
	case LevelHigh:
		return LevelHigh
	case LevelExtreme:
		return LevelExtreme
	default:
		return LevelMedium
	}
}

// IsLevel reports whether level equals want, ignoring case and whitespace.
func IsLevel(level, want string) bool {
	return strings.ToUpper(strings.TrimSpace(level)) == want
}
