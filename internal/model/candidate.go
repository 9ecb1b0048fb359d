package model

import "time"

// ScoreBreakdown holds the per-field similarity scores behind an overall
// score, so the operator can see which fields drove a proposal.
type ScoreBreakdown struct {
	Name  float64
	Brand float64
	GTIN  float64
	Price float64
}

// Candidate is a scored, unconfirmed pairing between a local product and an
// external listing. Candidates are transient; each generation call recomputes
// them from current inputs.
type Candidate struct {
	GeneratedAt   time.Time
	ProductID     string
	SourceCode    string
	ExternalKey   string
	Title         string
	Brand         string
	RuleID        string
	Explanation   []string
	Price         *float64
	Score         float64
	PriceDeltaPct float64
	Breakdown     ScoreBreakdown
}
