package model

// Algorithm selects the character-level string metric used by the scorer.
type Algorithm string

// Supported scoring algorithms.
const (
	AlgorithmJaroWinkler Algorithm = "jaro_winkler"
	AlgorithmLevenshtein Algorithm = "levenshtein"
)

// MatchingRule is a named configuration of field weights and thresholds
// applied during scoring. Weights are normalized by their sum at scoring
// time, so any positive total is acceptable.
type MatchingRule struct {
	ID           string
	Name         string
	Algorithm    Algorithm
	WeightName   float64
	WeightBrand  float64
	WeightGTIN   float64
	WeightPrice  float64
	PriceBandPct float64
	MinScore     float64
	IsDefault    bool
}

// DefaultRule returns the built-in rule used when storage holds no rules.
func DefaultRule() MatchingRule {
	return MatchingRule{
		ID:           "builtin-default",
		Name:         "Default",
		Algorithm:    AlgorithmJaroWinkler,
		WeightName:   0.4,
		WeightBrand:  0.3,
		WeightGTIN:   0.2,
		WeightPrice:  0.1,
		PriceBandPct: 15,
		MinScore:     0.65,
		IsDefault:    true,
	}
}
