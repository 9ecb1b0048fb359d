package model

import "time"

// MatchStatus indicates the decision state of a product match.
type MatchStatus string

// Match status constants.
const (
	StatusMatched    MatchStatus = "matched"
	StatusNotMatched MatchStatus = "not_matched"
	StatusSuperseded MatchStatus = "superseded"
)

// IsActive reports whether the status counts toward the one-active-decision
// invariant. Superseded rows are historical and exempt.
func (s MatchStatus) IsActive() bool {
	return s == StatusMatched || s == StatusNotMatched
}

// IsDecision reports whether the status is a valid operator decision.
// Superseded is reachable only through removal, never through confirm.
func (s MatchStatus) IsDecision() bool {
	return s == StatusMatched || s == StatusNotMatched
}

// ProductMatch is the durable record of an operator decision about one
// (tenant, external key, source) pair. At most one row with an active status
// exists per pair; removal supersedes a row in place rather than deleting it.
// Version starts at 1 and increments on every update as an audit counter.
type ProductMatch struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReviewedAt    time.Time
	ID            string
	TenantID      string
	ProductID     string
	ExternalKey   string
	SourceID      string
	RuleID        string
	SessionID     string
	ReviewedBy    string
	Notes         string
	Status        MatchStatus
	Score         float64
	PriceDeltaPct float64
	Version       int
}
