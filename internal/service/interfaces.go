// Package service defines the interfaces for all application collaborators.
package service

import (
	"context"

	"github.com/rajavignesh573/shopmatch/internal/model"
)

// ListingFilter narrows a per-source listing fetch at the source boundary.
type ListingFilter struct {
	Brand      string
	CategoryID string
}

// CandidateFilter configures one candidate generation call. Zero values fall
// back to the generator defaults (price band 15%, limit 25, all active sources).
type CandidateFilter struct {
	Sources      []string
	Brand        string
	CategoryID   string
	PriceBandPct float64
	Limit        int
}

// MatchFilter defines filtering options for match history queries. Empty
// fields are not applied.
type MatchFilter struct {
	TenantID    string
	ProductID   string
	ExternalKey string
	SourceID    string
	ReviewedBy  string
	Status      model.MatchStatus
	Limit       int
	Offset      int
}

// LocalCatalog reads products from the merchant's own catalog.
type LocalCatalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// ExternalCatalog supplies listings for one source per call. A failed fetch
// must be signaled with an error, distinct from an empty result.
type ExternalCatalog interface {
	ListBySource(ctx context.Context, sourceCode string, filter ListingFilter) ([]model.ExternalListing, error)
}

// SourceRegistry resolves which external sources exist and are active.
type SourceRegistry interface {
	ListActiveSources(ctx context.Context) ([]model.ListingSource, error)
	GetSourceByCode(ctx context.Context, code string) (*model.ListingSource, error)
}

// MatchStore is the durable persistence contract for match decisions. It is
// the single source of truth: implementations must enforce uniqueness of the
// active row per (tenant, external key, source) and report violations as
// common.ErrConflict so the lifecycle can recover with an update.
type MatchStore interface {
	CreateMatch(ctx context.Context, match *model.ProductMatch) error
	UpdateMatch(ctx context.Context, match *model.ProductMatch) error
	GetMatch(ctx context.Context, id string) (*model.ProductMatch, error)
	GetActiveMatch(ctx context.Context, tenantID, externalKey, sourceID string) (*model.ProductMatch, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]model.ProductMatch, error)
	ListActiveByProduct(ctx context.Context, tenantID, productID string) ([]model.ProductMatch, error)
}

// RuleStore persists matching rules and resolves the default rule.
type RuleStore interface {
	GetRule(ctx context.Context, id string) (*model.MatchingRule, error)
	GetDefaultRule(ctx context.Context) (*model.MatchingRule, error)
	ListRules(ctx context.Context) ([]model.MatchingRule, error)
	SaveRule(ctx context.Context, rule *model.MatchingRule) error
	SetDefaultRule(ctx context.Context, id string) error
}
