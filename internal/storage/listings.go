package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

// SaveListings upserts a batch of fetched listings in one transaction. Rows
// are keyed by (source_code, external_key) so re-imports refresh in place.
func (s *SQLiteStorage) SaveListings(ctx context.Context, listings []model.ExternalListing) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO external_listings (
			source_code, external_key, title, brand, category_id, price, gtin, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_code, external_key) DO UPDATE SET
			title = excluded.title,
			brand = excluded.brand,
			category_id = excluded.category_id,
			price = excluded.price,
			gtin = excluded.gtin,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare listing upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range listings {
		l := &listings[i]
		if l.SourceCode == "" || l.ExternalKey == "" || l.Title == "" {
			return fmt.Errorf("listing %d missing source, key, or title: %w", i, common.ErrInvalidInput)
		}
		fetchedAt := l.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, l.SourceCode, l.ExternalKey, l.Title, l.Brand,
			l.CategoryID, nullableFloat(l.Price), l.GTIN, fetchedAt); err != nil {
			return fmt.Errorf("failed to save listing %s/%s: %w", l.SourceCode, l.ExternalKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit listings: %w", err)
	}
	return nil
}

// ListBySource returns a source's stored listings, optionally narrowed by
// brand and category.
func (s *SQLiteStorage) ListBySource(ctx context.Context, sourceCode string, filter service.ListingFilter) ([]model.ExternalListing, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourceCode, "sourceCode"); err != nil {
		return nil, err
	}

	query := `
		SELECT source_code, external_key, title, brand, category_id, price, gtin, fetched_at
		FROM external_listings
		WHERE source_code = ?`
	args := []any{sourceCode}

	if filter.Brand != "" {
		query += ` AND brand = ? COLLATE NOCASE`
		args = append(args, filter.Brand)
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	query += ` ORDER BY external_key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var listings []model.ExternalListing
	for rows.Next() {
		var l model.ExternalListing
		var brand, categoryID, gtin sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&l.SourceCode, &l.ExternalKey, &l.Title, &brand, &categoryID,
			&price, &gtin, &l.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.Brand = brand.String
		l.CategoryID = categoryID.String
		l.GTIN = gtin.String
		if price.Valid {
			v := price.Float64
			l.Price = &v
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}
