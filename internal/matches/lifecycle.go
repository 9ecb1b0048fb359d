// Package matches owns the decision lifecycle for product matches: creation,
// re-review, and soft removal, under the single-active-decision invariant.
package matches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ConfirmInput carries one operator decision about a (tenant, external key,
// source) pair. Session and rule ids are explicit inputs; the lifecycle never
// defaults them internally.
type ConfirmInput struct {
	TenantID      string
	ProductID     string
	ExternalKey   string
	SourceCode    string
	RuleID        string
	SessionID     string
	Notes         string
	Status        model.MatchStatus
	Score         float64
	PriceDeltaPct float64
}

// Lifecycle coordinates match decisions against the durable store. It holds
// no mutable state of its own; the store is the single source of truth.
type Lifecycle struct {
	store   service.MatchStore
	sources service.SourceRegistry
}

// New creates a match lifecycle.
func New(store service.MatchStore, sources service.SourceRegistry) *Lifecycle {
	return &Lifecycle{store: store, sources: sources}
}

// Confirm records a matched/not_matched decision. An existing active row for
// the pair is updated in place with its version incremented; otherwise a new
// row starts at version 1. A store-level uniqueness violation from a
// concurrent confirm is recovered exactly once by retrying as an update.
func (l *Lifecycle) Confirm(ctx context.Context, in ConfirmInput, reviewerID string) (*model.ProductMatch, error) {
	if err := validateConfirm(in, reviewerID); err != nil {
		return nil, err
	}

	source, err := l.sources.GetSourceByCode(ctx, in.SourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source %q: %w", in.SourceCode, err)
	}

	existing, err := l.store.GetActiveMatch(ctx, in.TenantID, in.ExternalKey, source.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up active match: %w", err)
	}

	now := time.Now()

	if existing != nil {
		applyDecision(existing, in, reviewerID, now)
		if err := l.store.UpdateMatch(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update match %s: %w", existing.ID, err)
		}
		slog.Info("Updated match decision",
			"match_id", existing.ID,
			"status", existing.Status,
			"version", existing.Version)
		return existing, nil
	}

	match := &model.ProductMatch{
		ID:        uuid.NewString(),
		TenantID:  in.TenantID,
		ProductID: in.ProductID,
		CreatedAt: now,
	}
	applyDecision(match, in, reviewerID, now)
	match.ExternalKey = in.ExternalKey
	match.SourceID = source.ID

	err = l.store.CreateMatch(ctx, match)
	if errors.Is(err, common.ErrConflict) {
		// A concurrent confirm won the insert; fall back to a single update
		// against the now-existing active row.
		return l.confirmAfterConflict(ctx, in, reviewerID, source.ID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	slog.Info("Created match decision",
		"match_id", match.ID,
		"tenant", match.TenantID,
		"product_id", match.ProductID,
		"status", match.Status)
	return match, nil
}

// confirmAfterConflict is the single permitted retry after a uniqueness
// violation. If the active row still cannot be found or updated, the conflict
// is fatal.
func (l *Lifecycle) confirmAfterConflict(ctx context.Context, in ConfirmInput, reviewerID, sourceID string, now time.Time) (*model.ProductMatch, error) {
	existing, err := l.store.GetActiveMatch(ctx, in.TenantID, in.ExternalKey, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: insert collided but no active row found: %v", common.ErrConflict, err)
	}

	applyDecision(existing, in, reviewerID, now)
	if err := l.store.UpdateMatch(ctx, existing); err != nil {
		return nil, fmt.Errorf("%w: fallback update failed: %v", common.ErrConflict, err)
	}

	slog.Info("Recovered concurrent confirm as update",
		"match_id", existing.ID,
		"version", existing.Version)
	return existing, nil
}

// applyDecision copies the decision fields onto the row and advances its
// audit counter.
func applyDecision(match *model.ProductMatch, in ConfirmInput, reviewerID string, now time.Time) {
	match.Score = in.Score
	match.PriceDeltaPct = in.PriceDeltaPct
	match.RuleID = in.RuleID
	match.SessionID = in.SessionID
	match.Status = in.Status
	match.ReviewedBy = reviewerID
	match.ReviewedAt = now
	match.Notes = in.Notes
	match.UpdatedAt = now
	if match.Version > 0 {
		match.Version++
	}
	if match.Version == 0 {
		match.Version = 1
	}
}

// Remove supersedes a decision. The row stays as a historical record and can
// never transition again; re-establishing the pair goes through Confirm,
// which starts a fresh row.
func (l *Lifecycle) Remove(ctx context.Context, matchID, reviewerID string) error {
	if strings.TrimSpace(reviewerID) == "" {
		return common.ErrUnauthorized
	}
	if strings.TrimSpace(matchID) == "" {
		return fmt.Errorf("%w: match id is required", common.ErrInvalidInput)
	}

	match, err := l.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to load match %q: %w", matchID, err)
	}

	if match.Status == model.StatusSuperseded {
		return fmt.Errorf("%w: match %s is already superseded", common.ErrInvalidInput, matchID)
	}

	match.Status = model.StatusSuperseded
	match.ReviewedBy = reviewerID
	match.UpdatedAt = time.Now()
	match.Version++

	if err := l.store.UpdateMatch(ctx, match); err != nil {
		return fmt.Errorf("failed to supersede match %s: %w", matchID, err)
	}

	slog.Info("Superseded match", "match_id", matchID, "reviewed_by", reviewerID)
	return nil
}

// ListActiveByProduct returns the product's confirmed matches ordered by
// score descending, for callers that suppress or flag already-decided
// listings.
func (l *Lifecycle) ListActiveByProduct(ctx context.Context, tenantID, productID string) ([]model.ProductMatch, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: product id is required", common.ErrInvalidInput)
	}
	return l.store.ListActiveByProduct(ctx, tenantID, productID)
}

// List is the generic filtered, paginated history query, newest first.
func (l *Lifecycle) List(ctx context.Context, filter service.MatchFilter) ([]model.ProductMatch, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: offset cannot be negative", common.ErrInvalidInput)
	}
	return l.store.ListMatches(ctx, filter)
}

// validateConfirm rejects malformed input before any side effect.
func validateConfirm(in ConfirmInput, reviewerID string) error {
	if strings.TrimSpace(reviewerID) == "" {
		return common.ErrUnauthorized
	}
	if !in.Status.IsDecision() {
		return fmt.Errorf("%w: status must be %s or %s, got %q",
			common.ErrInvalidInput, model.StatusMatched, model.StatusNotMatched, in.Status)
	}
	if in.Score < 0 || in.Score > 1 {
		return fmt.Errorf("%w: score %v outside [0, 1]", common.ErrInvalidInput, in.Score)
	}
	for name, value := range map[string]string{
		"tenant id":    in.TenantID,
		"product id":   in.ProductID,
		"external key": in.ExternalKey,
		"source code":  in.SourceCode,
		"session id":   in.SessionID,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", common.ErrInvalidInput, name)
		}
	}
	return nil
}
