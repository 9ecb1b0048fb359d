package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

// SaveRule inserts or replaces a matching rule keyed by id.
func (s *SQLiteStorage) SaveRule(ctx context.Context, rule *model.MatchingRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_rules (
			id, name, algorithm, weight_name, weight_brand, weight_gtin,
			weight_price, price_band_pct, min_score, is_default
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			algorithm = excluded.algorithm,
			weight_name = excluded.weight_name,
			weight_brand = excluded.weight_brand,
			weight_gtin = excluded.weight_gtin,
			weight_price = excluded.weight_price,
			price_band_pct = excluded.price_band_pct,
			min_score = excluded.min_score,
			is_default = excluded.is_default
	`, rule.ID, rule.Name, string(rule.Algorithm), rule.WeightName, rule.WeightBrand,
		rule.WeightGTIN, rule.WeightPrice, rule.PriceBandPct, rule.MinScore, rule.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// GetRule retrieves a rule by id.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, ruleSelect+` WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetDefaultRule resolves the stored default rule. When storage holds no
// default the built-in rule is returned, so scoring always has a config.
func (s *SQLiteStorage) GetDefaultRule(ctx context.Context) (*model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, ruleSelect+` WHERE is_default = 1 LIMIT 1`)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		builtin := model.DefaultRule()
		return &builtin, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default rule: %w", err)
	}
	return rule, nil
}

// ListRules returns all stored rules ordered by name.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.MatchingRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, ruleSelect+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.MatchingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// SetDefaultRule marks one rule as default and clears the flag on all others
// in the same transaction.
func (s *SQLiteStorage) SetDefaultRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE match_rules SET is_default = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to set default rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %q: %w", id, common.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE match_rules SET is_default = 0 WHERE id != ?`, id); err != nil {
		return fmt.Errorf("failed to clear previous default: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit default rule change: %w", err)
	}
	return nil
}

const ruleSelect = `
	SELECT id, name, algorithm, weight_name, weight_brand, weight_gtin,
		weight_price, price_band_pct, min_score, is_default
	FROM match_rules`

func scanRule(row scanner) (*model.MatchingRule, error) {
	var rule model.MatchingRule
	var algorithm string
	err := row.Scan(&rule.ID, &rule.Name, &algorithm, &rule.WeightName, &rule.WeightBrand,
		&rule.WeightGTIN, &rule.WeightPrice, &rule.PriceBandPct, &rule.MinScore, &rule.IsDefault)
	if err != nil {
		return nil, err
	}
	rule.Algorithm = model.Algorithm(algorithm)
	return &rule, nil
}
