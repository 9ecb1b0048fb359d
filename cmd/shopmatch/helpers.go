package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/config"
	"github.com/rajavignesh573/shopmatch/internal/matches"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
	"github.com/rajavignesh573/shopmatch/internal/storage"
	"github.com/rajavignesh573/shopmatch/internal/tui"
)

// app bundles the collaborators every command needs.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	generator *candidates.Generator
	lifecycle *matches.Lifecycle
}

// openApp loads configuration, opens storage, runs migrations, and wires the
// generator and lifecycle. Callers must Close.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &app{
		cfg:       cfg,
		store:     store,
		generator: candidates.NewWithConfig(store, store, store, cfg.GeneratorConfig()),
		lifecycle: matches.New(store, store),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

// resolveRule loads the rule named by --rule, or the stored default.
func (a *app) resolveRule(ctx context.Context, ruleID string) (*model.MatchingRule, error) {
	if ruleID == "" {
		return a.store.GetDefaultRule(ctx)
	}
	return a.store.GetRule(ctx, ruleID)
}

// resolveSession returns the --session value, or a fresh id so every run is
// traceable in the audit history.
func resolveSession(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return uuid.NewString()
}

// requireReviewer enforces that decisions carry an identity.
func (a *app) requireReviewer() (string, error) {
	if a.cfg.ReviewerID == "" {
		return "", common.NewUserError(
			"no reviewer configured; pass --reviewer or set SHOPMATCH_REVIEWER",
			common.ErrUnauthorized)
	}
	return a.cfg.ReviewerID, nil
}

// reviewerAdapter exposes the generator and lifecycle to the review screen.
type reviewerAdapter struct {
	app  *app
	rule model.MatchingRule
}

func (r *reviewerAdapter) Candidates(ctx context.Context, productID string, filter service.CandidateFilter) (*candidates.Result, error) {
	return r.app.generator.GetCandidates(ctx, productID, filter, r.rule)
}

func (r *reviewerAdapter) ActiveMatches(ctx context.Context, tenantID, productID string) ([]model.ProductMatch, error) {
	return r.app.lifecycle.ListActiveByProduct(ctx, tenantID, productID)
}

func (r *reviewerAdapter) Sources(ctx context.Context) ([]model.ListingSource, error) {
	return r.app.store.ListSources(ctx)
}

func (r *reviewerAdapter) Confirm(ctx context.Context, in matches.ConfirmInput, reviewerID string) (*model.ProductMatch, error) {
	return r.app.lifecycle.Confirm(ctx, in, reviewerID)
}

func (r *reviewerAdapter) Remove(ctx context.Context, matchID, reviewerID string) error {
	return r.app.lifecycle.Remove(ctx, matchID, reviewerID)
}

var _ tui.Reviewer = (*reviewerAdapter)(nil)
