package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

// SaveSource inserts or replaces a source definition keyed by id.
func (s *SQLiteStorage) SaveSource(ctx context.Context, source *model.ListingSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSource(source); err != nil {
		return err
	}

	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listing_sources (id, name, code, config, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			config = excluded.config,
			is_active = excluded.is_active
	`, source.ID, source.Name, source.Code, source.Config, source.IsActive, source.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("source code %q already registered: %w", source.Code, common.ErrConflict)
		}
		return fmt.Errorf("failed to save source: %w", err)
	}

	return nil
}

// ListSources returns all registered sources ordered by code.
func (s *SQLiteStorage) ListSources(ctx context.Context) ([]model.ListingSource, error) {
	return s.listSources(ctx, sourceSelect+` ORDER BY code`)
}

// ListActiveSources returns only the sources eligible for candidate fetches.
func (s *SQLiteStorage) ListActiveSources(ctx context.Context) ([]model.ListingSource, error) {
	return s.listSources(ctx, sourceSelect+` WHERE is_active = 1 ORDER BY code`)
}

// GetSourceByCode resolves a short source code like "AMZ".
func (s *SQLiteStorage) GetSourceByCode(ctx context.Context, code string) (*model.ListingSource, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, sourceSelect+` WHERE code = ?`, code)
	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %q: %w", code, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return source, nil
}

// SetSourceActive flips a source in or out of the active set.
func (s *SQLiteStorage) SetSourceActive(ctx context.Context, code string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE listing_sources SET is_active = ? WHERE code = ?`, active, code)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source %q: %w", code, common.ErrNotFound)
	}

	return nil
}

const sourceSelect = `
	SELECT id, name, code, config, is_active, created_at
	FROM listing_sources`

func (s *SQLiteStorage) listSources(ctx context.Context, query string) ([]model.ListingSource, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []model.ListingSource
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}
	return sources, nil
}

func scanSource(row scanner) (*model.ListingSource, error) {
	var source model.ListingSource
	var config sql.NullString
	err := row.Scan(&source.ID, &source.Name, &source.Code, &config,
		&source.IsActive, &source.CreatedAt)
	if err != nil {
		return nil, err
	}
	source.Config = config.String
	return &source, nil
}
