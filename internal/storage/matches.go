package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

// CreateMatch inserts a new decision row. A violation of the active-row
// uniqueness index is reported as common.ErrConflict so the lifecycle can
// retry as an update.
func (s *SQLiteStorage) CreateMatch(ctx context.Context, match *model.ProductMatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMatch(match); err != nil {
		return err
	}

	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	if match.UpdatedAt.IsZero() {
		match.UpdatedAt = match.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_matches (
			id, tenant_id, product_id, external_key, source_id,
			score, price_delta_pct, rule_id, session_id, status,
			reviewed_by, reviewed_at, notes, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		match.ID, match.TenantID, match.ProductID, match.ExternalKey, match.SourceID,
		match.Score, match.PriceDeltaPct, match.RuleID, match.SessionID, string(match.Status),
		match.ReviewedBy, nullableTime(match.ReviewedAt), match.Notes, match.Version,
		match.CreatedAt, match.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("active match exists for (%s, %s, %s): %w",
				match.TenantID, match.ExternalKey, match.SourceID, common.ErrConflict)
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// UpdateMatch rewrites an existing row by id.
func (s *SQLiteStorage) UpdateMatch(ctx context.Context, match *model.ProductMatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMatch(match); err != nil {
		return err
	}

	if match.UpdatedAt.IsZero() {
		match.UpdatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE product_matches SET
			score = ?, price_delta_pct = ?, rule_id = ?, session_id = ?,
			status = ?, reviewed_by = ?, reviewed_at = ?, notes = ?,
			version = ?, updated_at = ?
		WHERE id = ?
	`,
		match.Score, match.PriceDeltaPct, match.RuleID, match.SessionID,
		string(match.Status), match.ReviewedBy, nullableTime(match.ReviewedAt), match.Notes,
		match.Version, match.UpdatedAt, match.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update collides with an active match: %w", common.ErrConflict)
		}
		return fmt.Errorf("failed to update match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match %q: %w", match.ID, common.ErrNotFound)
	}

	return nil
}

// GetMatch retrieves a single match row by id.
func (s *SQLiteStorage) GetMatch(ctx context.Context, id string) (*model.ProductMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, matchSelect+` WHERE id = ?`, id)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// GetActiveMatch finds the active decision for a pair, if any.
func (s *SQLiteStorage) GetActiveMatch(ctx context.Context, tenantID, externalKey, sourceID string) (*model.ProductMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, matchSelect+`
		WHERE tenant_id = ? AND external_key = ? AND source_id = ?
		AND status IN ('matched', 'not_matched')
	`, tenantID, externalKey, sourceID)

	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active match: %w", err)
	}
	return match, nil
}

// ListMatches runs the generic filtered, paginated history query, newest first.
func (s *SQLiteStorage) ListMatches(ctx context.Context, filter service.MatchFilter) ([]model.ProductMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := matchSelect
	var conds []string
	var args []any

	addCond := func(cond, value string) {
		if value != "" {
			conds = append(conds, cond)
			args = append(args, value)
		}
	}
	addCond("tenant_id = ?", filter.TenantID)
	addCond("product_id = ?", filter.ProductID)
	addCond("external_key = ?", filter.ExternalKey)
	addCond("source_id = ?", filter.SourceID)
	addCond("reviewed_by = ?", filter.ReviewedBy)
	addCond("status = ?", string(filter.Status))

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMatches(rows)
}

// ListActiveByProduct returns a product's confirmed matches, best score first.
func (s *SQLiteStorage) ListActiveByProduct(ctx context.Context, tenantID, productID string) ([]model.ProductMatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, matchSelect+`
		WHERE tenant_id = ? AND product_id = ? AND status = 'matched'
		ORDER BY score DESC, id
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMatches(rows)
}

const matchSelect = `
	SELECT id, tenant_id, product_id, external_key, source_id,
		score, price_delta_pct, rule_id, session_id, status,
		reviewed_by, reviewed_at, notes, version, created_at, updated_at
	FROM product_matches`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (*model.ProductMatch, error) {
	var match model.ProductMatch
	var status string
	var ruleID, sessionID, reviewedBy, notes sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(
		&match.ID, &match.TenantID, &match.ProductID, &match.ExternalKey, &match.SourceID,
		&match.Score, &match.PriceDeltaPct, &ruleID, &sessionID, &status,
		&reviewedBy, &reviewedAt, &notes, &match.Version, &match.CreatedAt, &match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	match.Status = model.MatchStatus(status)
	match.RuleID = ruleID.String
	match.SessionID = sessionID.String
	match.ReviewedBy = reviewedBy.String
	match.Notes = notes.String
	if reviewedAt.Valid {
		match.ReviewedAt = reviewedAt.Time
	}
	return &match, nil
}

func scanMatches(rows *sql.Rows) ([]model.ProductMatch, error) {
	var matches []model.ProductMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
