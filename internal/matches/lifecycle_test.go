package matches

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

// mockMatchStore keeps rows in memory and enforces the active-row uniqueness
// constraint the way the SQLite store does.
type mockMatchStore struct {
	mu             sync.Mutex
	rows           map[string]*model.ProductMatch
	createErr      error
	updateErr      error
	missActiveOnce bool
}

func newMockMatchStore() *mockMatchStore {
	return &mockMatchStore{rows: map[string]*model.ProductMatch{}}
}

func (m *mockMatchStore) CreateMatch(_ context.Context, match *model.ProductMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil
		return err
	}
	for _, row := range m.rows {
		if row.TenantID == match.TenantID && row.ExternalKey == match.ExternalKey &&
			row.SourceID == match.SourceID && row.Status.IsActive() {
			return common.ErrConflict
		}
	}
	clone := *match
	m.rows[match.ID] = &clone
	return nil
}

func (m *mockMatchStore) UpdateMatch(_ context.Context, match *model.ProductMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[match.ID]; !ok {
		return fmt.Errorf("match %q: %w", match.ID, common.ErrNotFound)
	}
	clone := *match
	m.rows[match.ID] = &clone
	return nil
}

func (m *mockMatchStore) GetMatch(_ context.Context, id string) (*model.ProductMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("match %q: %w", id, common.ErrNotFound)
	}
	clone := *row
	return &clone, nil
}

func (m *mockMatchStore) GetActiveMatch(_ context.Context, tenantID, externalKey, sourceID string) (*model.ProductMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missActiveOnce {
		m.missActiveOnce = false
		return nil, common.ErrNotFound
	}
	for _, row := range m.rows {
		if row.TenantID == tenantID && row.ExternalKey == externalKey &&
			row.SourceID == sourceID && row.Status.IsActive() {
			clone := *row
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *mockMatchStore) ListMatches(_ context.Context, filter service.MatchFilter) ([]model.ProductMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProductMatch
	for _, row := range m.rows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.ProductID != "" && row.ProductID != filter.ProductID {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (m *mockMatchStore) ListActiveByProduct(_ context.Context, tenantID, productID string) ([]model.ProductMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProductMatch
	for _, row := range m.rows {
		if row.TenantID == tenantID && row.ProductID == productID && row.Status == model.StatusMatched {
			out = append(out, *row)
		}
	}
	return out, nil
}

type stubRegistry struct{}

func (stubRegistry) ListActiveSources(_ context.Context) ([]model.ListingSource, error) {
	return []model.ListingSource{{ID: "src-amz", Code: "AMZ", IsActive: true}}, nil
}

func (stubRegistry) GetSourceByCode(_ context.Context, code string) (*model.ListingSource, error) {
	if code != "AMZ" {
		return nil, fmt.Errorf("source %q: %w", code, common.ErrNotFound)
	}
	return &model.ListingSource{ID: "src-amz", Code: "AMZ", IsActive: true}, nil
}

func testInput(status model.MatchStatus) ConfirmInput {
	return ConfirmInput{
		TenantID:      "default",
		ProductID:     "prod-1",
		ExternalKey:   "amz-1",
		SourceCode:    "AMZ",
		Score:         0.93,
		PriceDeltaPct: -5.5,
		RuleID:        "rule-1",
		SessionID:     "sess-1",
		Status:        status,
		Notes:         "looks right",
	}
}

func TestConfirm_CreatesRowWithVersionOne(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})

	match, err := lc.Confirm(context.Background(), testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)

	assert.NotEmpty(t, match.ID)
	assert.Equal(t, 1, match.Version)
	assert.Equal(t, model.StatusMatched, match.Status)
	assert.Equal(t, "src-amz", match.SourceID)
	assert.Equal(t, "reviewer-1", match.ReviewedBy)
	assert.False(t, match.ReviewedAt.IsZero())
}

func TestConfirm_SecondCallUpdatesInPlace(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	first, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)

	second, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same pair must reuse the active row")
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "reviewer-2", second.ReviewedBy)

	active, err := store.ListMatches(ctx, service.MatchFilter{Status: model.StatusMatched})
	require.NoError(t, err)
	assert.Len(t, active, 1, "exactly one active row per pair")
}

func TestConfirm_FlipsDecisionOnSameRow(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	first, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)

	flipped, err := lc.Confirm(ctx, testInput(model.StatusNotMatched), "reviewer-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, flipped.ID)
	assert.Equal(t, model.StatusNotMatched, flipped.Status)
	assert.Equal(t, 2, flipped.Version)
}

func TestConfirm_RecoversFromInsertConflict(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	// Simulate a concurrent confirm landing between our lookup and insert:
	// the initial active-row lookup misses, the insert then collides with the
	// rival's row, and the fallback lookup finds it.
	rival := &model.ProductMatch{
		ID: "rival", TenantID: "default", ProductID: "prod-1",
		ExternalKey: "amz-1", SourceID: "src-amz",
		Status: model.StatusMatched, Version: 1,
	}
	store.rows[rival.ID] = rival
	store.missActiveOnce = true

	match, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, "rival", match.ID)
	assert.Equal(t, 2, match.Version)
}

func TestConfirm_FatalConflictWhenFallbackFails(t *testing.T) {
	t.Run("no active row after collision", func(t *testing.T) {
		store := newMockMatchStore()
		store.createErr = common.ErrConflict
		lc := New(store, stubRegistry{})

		_, err := lc.Confirm(context.Background(), testInput(model.StatusMatched), "reviewer-1")
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("fallback update fails", func(t *testing.T) {
		store := newMockMatchStore()
		rival := &model.ProductMatch{
			ID: "rival", TenantID: "default", ProductID: "prod-1",
			ExternalKey: "amz-1", SourceID: "src-amz",
			Status: model.StatusMatched, Version: 1,
		}
		store.rows[rival.ID] = rival
		store.missActiveOnce = true
		store.updateErr = fmt.Errorf("disk full")
		lc := New(store, stubRegistry{})

		_, err := lc.Confirm(context.Background(), testInput(model.StatusMatched), "reviewer-1")
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestConfirm_Validation(t *testing.T) {
	lc := New(newMockMatchStore(), stubRegistry{})
	ctx := context.Background()

	t.Run("missing reviewer", func(t *testing.T) {
		_, err := lc.Confirm(ctx, testInput(model.StatusMatched), "")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("superseded is not a decision", func(t *testing.T) {
		_, err := lc.Confirm(ctx, testInput(model.StatusSuperseded), "reviewer-1")
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("score out of range", func(t *testing.T) {
		in := testInput(model.StatusMatched)
		in.Score = 1.5
		_, err := lc.Confirm(ctx, in, "reviewer-1")
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("missing session id", func(t *testing.T) {
		in := testInput(model.StatusMatched)
		in.SessionID = ""
		_, err := lc.Confirm(ctx, in, "reviewer-1")
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("unknown source", func(t *testing.T) {
		in := testInput(model.StatusMatched)
		in.SourceCode = "NOPE"
		_, err := lc.Confirm(ctx, in, "reviewer-1")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestRemove_SupersedesWithoutDeleting(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	match, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)

	require.NoError(t, lc.Remove(ctx, match.ID, "reviewer-1"))

	// Row still exists, as history.
	row, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, row.Status)
	assert.Equal(t, 2, row.Version)

	// It no longer shows up among active matches.
	active, err := lc.ListActiveByProduct(ctx, "default", "prod-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	// A new confirm for the pair starts a fresh row.
	fresh, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)
	assert.NotEqual(t, match.ID, fresh.ID)
	assert.Equal(t, 1, fresh.Version)
}

func TestRemove_SupersededIsTerminal(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	match, err := lc.Confirm(ctx, testInput(model.StatusMatched), "reviewer-1")
	require.NoError(t, err)
	require.NoError(t, lc.Remove(ctx, match.ID, "reviewer-1"))

	err = lc.Remove(ctx, match.ID, "reviewer-1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRemove_Validation(t *testing.T) {
	lc := New(newMockMatchStore(), stubRegistry{})
	ctx := context.Background()

	assert.ErrorIs(t, lc.Remove(ctx, "some-id", ""), common.ErrUnauthorized)
	assert.ErrorIs(t, lc.Remove(ctx, "", "reviewer-1"), common.ErrInvalidInput)
	assert.ErrorIs(t, lc.Remove(ctx, "missing", "reviewer-1"), common.ErrNotFound)
}

func TestList_DefaultsAndValidation(t *testing.T) {
	store := newMockMatchStore()
	lc := New(store, stubRegistry{})
	ctx := context.Background()

	_, err := lc.List(ctx, service.MatchFilter{Offset: -1})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = lc.List(ctx, service.MatchFilter{})
	assert.NoError(t, err)
}
