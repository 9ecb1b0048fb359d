package model

// ReviewKind discriminates the two payloads a ReviewItem can carry.
type ReviewKind string

// Review item kinds.
const (
	ReviewKindExisting ReviewKind = "existing"
	ReviewKindProposed ReviewKind = "proposed"
)

// ReviewItem is what the operator sees during review: either a previously
// confirmed decision or a freshly scored proposal. Exactly one payload is set,
// selected by Kind; callers switch on Kind rather than probing pointers.
type ReviewItem struct {
	Existing *ProductMatch
	Proposed *Candidate
	Kind     ReviewKind
}

// NewExistingReview wraps a persisted decision for display.
func NewExistingReview(m ProductMatch) ReviewItem {
	return ReviewItem{Kind: ReviewKindExisting, Existing: &m}
}

// NewProposedReview wraps a scored candidate for display.
func NewProposedReview(c Candidate) ReviewItem {
	return ReviewItem{Kind: ReviewKindProposed, Proposed: &c}
}
