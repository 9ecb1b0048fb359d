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

// SaveProducts upserts a batch of catalog products in one transaction.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, title, brand, category_id, price, gtin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			brand = excluded.brand,
			category_id = excluded.category_id,
			price = excluded.price,
			gtin = excluded.gtin
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range products {
		p := &products[i]
		if p.ID == "" || p.Title == "" {
			return fmt.Errorf("product %d missing id or title: %w", i, common.ErrInvalidInput)
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Brand, p.CategoryID,
			nullableFloat(p.Price), p.GTIN, createdAt); err != nil {
			return fmt.Errorf("failed to save product %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

// GetProduct retrieves a catalog product by id.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, brand, category_id, price, gtin, created_at
		FROM products WHERE id = ?
	`, id)

	var product model.Product
	var brand, categoryID, gtin sql.NullString
	var price sql.NullFloat64
	err := row.Scan(&product.ID, &product.Title, &brand, &categoryID, &price,
		&gtin, &product.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product.Brand = brand.String
	product.CategoryID = categoryID.String
	product.GTIN = gtin.String
	if price.Valid {
		v := price.Float64
		product.Price = &v
	}
	return &product, nil
}

// nullableFloat maps a nil price to NULL.
func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
