package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

func TestRenderCandidates(t *testing.T) {
	price := 849.99
	result := &candidates.Result{
		Candidates: []model.Candidate{
			{
				SourceCode:    "AMZ",
				ExternalKey:   "B0A1",
				Title:         "UPPAbaby Vista V2",
				Score:         0.92,
				Price:         &price,
				PriceDeltaPct: -5.6,
				Explanation:   []string{"gtin 1.00", "name 0.94"},
			},
		},
		Skipped: []candidates.SkippedSource{
			{Code: "EBY", Err: errors.New("connection refused")},
		},
	}

	var buf bytes.Buffer
	RenderCandidates(&buf, &model.Product{Title: "UPPAbaby Vista V2 Stroller"}, result)

	out := buf.String()
	assert.Contains(t, out, "UPPAbaby Vista V2 Stroller")
	assert.Contains(t, out, "B0A1")
	assert.Contains(t, out, "0.920")
	assert.Contains(t, out, "gtin 1.00")
	assert.Contains(t, out, "Skipped source EBY")
}

func TestRenderCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderCandidates(&buf, &model.Product{Title: "X"}, &candidates.Result{})
	assert.Contains(t, buf.String(), "No candidates")
}

func TestRenderMatches(t *testing.T) {
	var buf bytes.Buffer
	RenderMatches(&buf, []model.ProductMatch{
		{
			ID:         "m-1",
			ProductID:  "prod-1",
			SourceID:   "src-amz",
			ExternalKey: "B0A1",
			Status:     model.StatusMatched,
			Score:      0.91,
			Version:    2,
			ReviewedBy: "alice",
			UpdatedAt:  time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
	})

	out := buf.String()
	assert.Contains(t, out, "m-1")
	assert.Contains(t, out, "matched")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "2026-03-01")
}

func TestRenderSourcesAndRules(t *testing.T) {
	var buf bytes.Buffer
	RenderSources(&buf, []model.ListingSource{
		{Code: "AMZ", Name: "Amazon", IsActive: true, CreatedAt: time.Now()},
	})
	assert.Contains(t, buf.String(), "AMZ")

	buf.Reset()
	rule := model.DefaultRule()
	RenderRules(&buf, []model.MatchingRule{rule})
	assert.Contains(t, buf.String(), "builtin-default")
	assert.Contains(t, buf.String(), "0.40/0.30/0.20/0.10")

	buf.Reset()
	RenderRules(&buf, nil)
	assert.Contains(t, buf.String(), "built-in default")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "longtex...", truncate("longtext-overflow", 10))

	// Multibyte titles cut on rune boundaries, never mid-character.
	got := truncate("Bébé Confort Poussette Légère", 10)
	assert.Equal(t, "Bébé Co...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Bébé", truncate("Bébé", 10))
}
