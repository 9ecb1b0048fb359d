package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/matches"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

// Registry-style source ids; matches reference these, never the short code.
const (
	srcAMZID = "5f8a1c2e-44d7-4f0b-9c3a-6e2d8b1f7a90"
	srcEBYID = "c9d4e7f1-2b3a-4c5d-8e9f-0a1b2c3d4e5f"
)

type stubReviewer struct {
	confirms []matches.ConfirmInput
	removals []string
	existing []model.ProductMatch
	result   candidates.Result
}

func (s *stubReviewer) Candidates(_ context.Context, _ string, _ service.CandidateFilter) (*candidates.Result, error) {
	result := s.result
	return &result, nil
}

func (s *stubReviewer) ActiveMatches(_ context.Context, _, _ string) ([]model.ProductMatch, error) {
	return s.existing, nil
}

func (s *stubReviewer) Sources(_ context.Context) ([]model.ListingSource, error) {
	return []model.ListingSource{
		{ID: srcAMZID, Code: "AMZ", Name: "Amazon", IsActive: true},
		{ID: srcEBYID, Code: "EBY", Name: "eBay", IsActive: true},
	}, nil
}

func (s *stubReviewer) Confirm(_ context.Context, in matches.ConfirmInput, _ string) (*model.ProductMatch, error) {
	s.confirms = append(s.confirms, in)
	return &model.ProductMatch{ID: "m-new", Status: in.Status, Version: 1}, nil
}

func (s *stubReviewer) Remove(_ context.Context, matchID, _ string) error {
	s.removals = append(s.removals, matchID)
	return nil
}

func testConfig(reviewer *stubReviewer) Config {
	return Config{
		Reviewer:   reviewer,
		Product:    &model.Product{ID: "prod-1", Title: "UPPAbaby Vista V2 Stroller"},
		TenantID:   "tenant-1",
		SessionID:  "sess-1",
		RuleID:     "builtin-default",
		ReviewerID: "alice",
	}
}

func loadModel(t *testing.T, reviewer *stubReviewer) Model {
	t.Helper()

	m := NewModel(context.Background(), testConfig(reviewer))
	msg := m.loadCmd()()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok, "load must succeed: %v", msg)

	updated, _ := m.Update(loaded)
	return updated.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoad_MergesExistingAndProposals(t *testing.T) {
	reviewer := &stubReviewer{
		existing: []model.ProductMatch{
			{ID: "m-1", SourceID: srcAMZID, ExternalKey: "B0A1", Status: model.StatusMatched, Version: 1},
		},
		result: candidates.Result{
			Candidates: []model.Candidate{
				// Already decided; must not appear twice.
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.95},
				{ProductID: "prod-1", SourceCode: "EBY", ExternalKey: "E-9", Score: 0.81},
			},
		},
	}

	m := loadModel(t, reviewer)
	require.Equal(t, StateBrowsing, m.state)
	require.Len(t, m.items, 2)
	assert.Equal(t, model.ReviewKindExisting, m.items[0].Kind)
	assert.Equal(t, model.ReviewKindProposed, m.items[1].Kind)
	assert.Equal(t, "E-9", m.items[1].Proposed.ExternalKey)
}

func TestLoad_SuppressionBridgesSourceIDAndCode(t *testing.T) {
	// The match row holds the registry id, the candidate the short code;
	// suppression must see through the mapping, not compare them verbatim.
	reviewer := &stubReviewer{
		existing: []model.ProductMatch{
			{ID: "m-1", SourceID: srcAMZID, ExternalKey: "B0A1", Status: model.StatusNotMatched, Version: 1},
		},
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.95},
			},
		},
	}

	m := loadModel(t, reviewer)
	require.Len(t, m.items, 1)
	assert.Equal(t, model.ReviewKindExisting, m.items[0].Kind)

	// The existing decision renders under its short code, not the raw id.
	assert.Contains(t, m.View(), "AMZ/B0A1")
	assert.NotContains(t, m.View(), srcAMZID)
}

func TestConfirmProposal(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.92, PriceDeltaPct: -5.6},
			},
		},
	}
	m := loadModel(t, reviewer)

	updated, cmd := m.Update(keyMsg("m"))
	m = updated.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	decided, ok := msg.(decidedMsg)
	require.True(t, ok, "confirm must succeed: %v", msg)

	updated, _ = m.Update(decided)
	m = updated.(Model)

	require.Len(t, reviewer.confirms, 1)
	in := reviewer.confirms[0]
	assert.Equal(t, model.StatusMatched, in.Status)
	assert.Equal(t, "B0A1", in.ExternalKey)
	assert.Equal(t, "sess-1", in.SessionID)
	assert.InDelta(t, 0.92, in.Score, 1e-9)
	assert.Equal(t, "matched", m.statuses[0])
}

func TestNotMatchProposal(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.7},
			},
		},
	}
	m := loadModel(t, reviewer)

	_, cmd := m.Update(keyMsg("n"))
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, reviewer.confirms, 1)
	assert.Equal(t, model.StatusNotMatched, reviewer.confirms[0].Status)
}

func TestConfirmWithNote(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.9},
			},
		},
	}
	m := loadModel(t, reviewer)

	updated, _ := m.Update(keyMsg("c"))
	m = updated.(Model)
	require.Equal(t, StateNoting, m.state)

	for _, r := range "same colorway" {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Equal(t, StateBrowsing, m.state)
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, reviewer.confirms, 1)
	assert.Equal(t, "same colorway", reviewer.confirms[0].Notes)
}

func TestRemoveExisting(t *testing.T) {
	reviewer := &stubReviewer{
		existing: []model.ProductMatch{
			{ID: "m-1", SourceID: srcAMZID, ExternalKey: "B0A1", Status: model.StatusMatched, Version: 1},
		},
	}
	m := loadModel(t, reviewer)

	updated, cmd := m.Update(keyMsg("d"))
	m = updated.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	removed, ok := msg.(removedMsg)
	require.True(t, ok)

	updated, _ = m.Update(removed)
	m = updated.(Model)

	assert.Equal(t, []string{"m-1"}, reviewer.removals)
	assert.Equal(t, "superseded", m.statuses[0])
}

func TestRemove_IgnoredForProposals(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "B0A1", Score: 0.9},
			},
		},
	}
	m := loadModel(t, reviewer)

	_, cmd := m.Update(keyMsg("d"))
	assert.Nil(t, cmd)
	assert.Empty(t, reviewer.removals)
}

func TestNavigationAndQuit(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Candidates: []model.Candidate{
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "a", Score: 0.9},
				{ProductID: "prod-1", SourceCode: "AMZ", ExternalKey: "b", Score: 0.8},
			},
		},
	}
	m := loadModel(t, reviewer)

	updated, _ := m.Update(keyMsg("j"))
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	// Clamped at the end.
	updated, _ = m.Update(keyMsg("j"))
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	updated, _ = m.Update(keyMsg("k"))
	m = updated.(Model)
	assert.Equal(t, 0, m.cursor)

	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(Model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
}

func TestView_ShowsSkippedSources(t *testing.T) {
	reviewer := &stubReviewer{
		result: candidates.Result{
			Skipped: []candidates.SkippedSource{
				{Code: "EBY", Err: assert.AnError},
			},
		},
	}
	m := loadModel(t, reviewer)

	view := m.View()
	assert.Contains(t, view, "Nothing to review")
	assert.Contains(t, view, "skipped source EBY")
}
