// Package candidates turns one local product plus the active external sources
// into a ranked, explained shortlist of listings.
package candidates

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
	"github.com/rajavignesh573/shopmatch/internal/similarity"
)

// Config holds configuration options for candidate generation.
type Config struct {
	// FetchWorkers bounds how many source fetches run at once, so a burst of
	// sources does not translate into a burst of simultaneous requests
	// against downstream catalogs.
	FetchWorkers int
	// FetchTimeout applies per source fetch, not to the whole operation.
	FetchTimeout time.Duration
	// DefaultLimit caps the shortlist when the filter does not.
	DefaultLimit int
	// DefaultPriceBandPct pre-filters listings when the filter does not set a band.
	DefaultPriceBandPct float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FetchWorkers:        4,
		FetchTimeout:        10 * time.Second,
		DefaultLimit:        25,
		DefaultPriceBandPct: 15,
	}
}

// SkippedSource records a source whose fetch failed or timed out. The
// failure never aborts the overall operation; its listings are simply absent.
type SkippedSource struct {
	Err  error
	Code string
}

// Result is the outcome of one generation call: the ranked shortlist plus
// which sources were skipped, so the caller can inform the operator.
type Result struct {
	Candidates []model.Candidate
	Skipped    []SkippedSource
}

// Generator produces ranked candidate listings for local products.
type Generator struct {
	local    service.LocalCatalog
	external service.ExternalCatalog
	sources  service.SourceRegistry
	cfg      Config
}

// New creates a generator with default configuration.
func New(local service.LocalCatalog, external service.ExternalCatalog, sources service.SourceRegistry) *Generator {
	return NewWithConfig(local, external, sources, DefaultConfig())
}

// NewWithConfig creates a generator with custom configuration.
func NewWithConfig(local service.LocalCatalog, external service.ExternalCatalog, sources service.SourceRegistry, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = def.FetchWorkers
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.DefaultPriceBandPct <= 0 {
		cfg.DefaultPriceBandPct = def.DefaultPriceBandPct
	}
	return &Generator{local: local, external: external, sources: sources, cfg: cfg}
}

// sourceResult carries one source's scored candidates or its failure.
type sourceResult struct {
	err        error
	code       string
	candidates []model.Candidate
}

// GetCandidates fetches listings from every resolved source, pre-filters by
// price band, scores the survivors under the rule, and returns them ranked
// and truncated. Each call recomputes from current inputs; nothing is cached.
func (g *Generator) GetCandidates(ctx context.Context, productID string, filter service.CandidateFilter, rule model.MatchingRule) (*Result, error) {
	product, err := g.local.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %q: %w", productID, err)
	}

	codes, err := g.resolveSources(ctx, filter.Sources)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = g.cfg.DefaultLimit
	}
	bandPct := filter.PriceBandPct
	if bandPct <= 0 {
		bandPct = g.cfg.DefaultPriceBandPct
	}

	slog.Info("Generating candidates",
		"product_id", product.ID,
		"sources", len(codes),
		"rule_id", rule.ID,
		"price_band_pct", bandPct)

	results := g.fetchAndScore(ctx, *product, codes, filter, rule, bandPct)

	// A caller-level cancellation still outranks partial results.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result := &Result{}
	for _, res := range results {
		if res.err != nil {
			slog.Warn("Skipping source after failed fetch", "source", res.code, "error", res.err)
			result.Skipped = append(result.Skipped, SkippedSource{
				Code: res.code,
				Err:  fmt.Errorf("%w: %s: %v", common.ErrSourceFetch, res.code, res.err),
			})
			continue
		}
		result.Candidates = append(result.Candidates, res.candidates...)
	}

	sortCandidates(result.Candidates)
	if len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].Code < result.Skipped[j].Code })

	slog.Info("Candidate generation complete",
		"product_id", product.ID,
		"candidates", len(result.Candidates),
		"skipped_sources", len(result.Skipped))

	return result, nil
}

// resolveSources returns the codes of the active sources to query,
// intersected with the requested codes when given.
func (g *Generator) resolveSources(ctx context.Context, requested []string) ([]string, error) {
	active, err := g.sources.ListActiveSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}

	if len(requested) == 0 {
		codes := make([]string, len(active))
		for i, src := range active {
			codes[i] = src.Code
		}
		return codes, nil
	}

	activeSet := make(map[string]bool, len(active))
	for _, src := range active {
		activeSet[src.Code] = true
	}

	var codes []string
	for _, code := range requested {
		if activeSet[code] {
			codes = append(codes, code)
		} else {
			slog.Warn("Requested source is unknown or inactive", "source", code)
		}
	}
	return codes, nil
}

// fetchAndScore runs per-source fetches on a bounded worker pool. Scoring is
// stateless, so each worker scores its own source's listings; the final sort
// restores determinism regardless of completion order.
func (g *Generator) fetchAndScore(ctx context.Context, product model.Product, codes []string, filter service.CandidateFilter, rule model.MatchingRule, bandPct float64) []sourceResult {
	workChan := make(chan string, len(codes))
	for _, code := range codes {
		workChan <- code
	}
	close(workChan)

	resultsChan := make(chan sourceResult, len(codes))

	workers := g.cfg.FetchWorkers
	if workers > len(codes) {
		workers = len(codes)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for code := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resultsChan <- g.fetchSource(ctx, product, code, filter, rule, bandPct)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]sourceResult, 0, len(codes))
	for res := range resultsChan {
		results = append(results, res)
	}
	return results
}

// fetchSource fetches one source under its own timeout and scores the
// surviving listings.
func (g *Generator) fetchSource(ctx context.Context, product model.Product, code string, filter service.CandidateFilter, rule model.MatchingRule, bandPct float64) sourceResult {
	fetchCtx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
	defer cancel()

	listings, err := g.external.ListBySource(fetchCtx, code, service.ListingFilter{
		Brand:      filter.Brand,
		CategoryID: filter.CategoryID,
	})
	if err != nil {
		return sourceResult{code: code, err: err}
	}

	now := time.Now()
	scored := make([]model.Candidate, 0, len(listings))
	for _, listing := range listings {
		if !withinPriceBand(product.Price, listing.Price, bandPct) {
			continue
		}

		overall, breakdown := similarity.Score(similarity.ProductItem(product), similarity.ListingItem(listing), rule)
		if overall < rule.MinScore {
			continue
		}

		scored = append(scored, model.Candidate{
			GeneratedAt:   now,
			ProductID:     product.ID,
			SourceCode:    listing.SourceCode,
			ExternalKey:   listing.ExternalKey,
			Title:         listing.Title,
			Brand:         listing.Brand,
			Price:         listing.Price,
			Score:         overall,
			PriceDeltaPct: priceDeltaPct(product.Price, listing.Price),
			Breakdown:     breakdown,
			RuleID:        rule.ID,
			Explanation:   explain(breakdown),
		})
	}

	return sourceResult{code: code, candidates: scored}
}

// withinPriceBand keeps a listing only when its price falls inside the
// ±bandPct window around the product price. The filter is skipped entirely
// when either price is missing; it bounds scoring work, it is not a
// correctness gate.
func withinPriceBand(productPrice, listingPrice *float64, bandPct float64) bool {
	if productPrice == nil || listingPrice == nil {
		return true
	}
	band := math.Abs(*productPrice) * bandPct / 100
	return math.Abs(*listingPrice-*productPrice) <= band
}

// priceDeltaPct is the signed listing price deviation relative to the product
// price, in percent. Zero when either price is missing.
func priceDeltaPct(productPrice, listingPrice *float64) float64 {
	if productPrice == nil || listingPrice == nil || *productPrice == 0 {
		return 0
	}
	return (*listingPrice - *productPrice) / *productPrice * 100
}

// sortCandidates orders by score descending, ties broken by ascending
// absolute price delta, then source code and external key for determinism.
func sortCandidates(cands []model.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		da, db := math.Abs(a.PriceDeltaPct), math.Abs(b.PriceDeltaPct)
		if da != db {
			return da < db
		}
		if a.SourceCode != b.SourceCode {
			return a.SourceCode < b.SourceCode
		}
		return a.ExternalKey < b.ExternalKey
	})
}

// explain names the fields that drove the score, strongest first.
func explain(b model.ScoreBreakdown) []string {
	type fieldScore struct {
		name  string
		score float64
	}
	fields := []fieldScore{
		{"name", b.Name},
		{"brand", b.Brand},
		{"gtin", b.GTIN},
		{"price", b.Price},
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].score > fields[j].score })

	var parts []string
	for _, f := range fields {
		if f.score <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.2f", f.name, f.score))
	}
	return parts
}
