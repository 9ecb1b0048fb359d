package candidates

import (
	"context"
	"fmt"
	"sync"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

type mockLocalCatalog struct {
	products map[string]model.Product
}

func (m *mockLocalCatalog) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", id, common.ErrNotFound)
	}
	return &p, nil
}

type mockExternalCatalog struct {
	listings map[string][]model.ExternalListing
	failures map[string]error
	mu       sync.Mutex
	calls    []string
}

func (m *mockExternalCatalog) ListBySource(ctx context.Context, sourceCode string, _ service.ListingFilter) ([]model.ExternalListing, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sourceCode)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.failures[sourceCode]; ok {
		return nil, err
	}
	return m.listings[sourceCode], nil
}

func (m *mockExternalCatalog) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSourceRegistry struct {
	sources []model.ListingSource
}

func (m *mockSourceRegistry) ListActiveSources(_ context.Context) ([]model.ListingSource, error) {
	var active []model.ListingSource
	for _, src := range m.sources {
		if src.IsActive {
			active = append(active, src)
		}
	}
	return active, nil
}

func (m *mockSourceRegistry) GetSourceByCode(_ context.Context, code string) (*model.ListingSource, error) {
	for _, src := range m.sources {
		if src.Code == code {
			return &src, nil
		}
	}
	return nil, fmt.Errorf("source %q: %w", code, common.ErrNotFound)
}
