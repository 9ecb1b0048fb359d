package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: context cannot be nil", common.ErrInvalidInput)
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", common.ErrInvalidInput, paramName)
	}
	return nil
}

// validateMatch validates a product match row before it touches the database.
func validateMatch(match *model.ProductMatch) error {
	if match == nil {
		return fmt.Errorf("%w: match cannot be nil", common.ErrInvalidInput)
	}
	for name, value := range map[string]string{
		"id":           match.ID,
		"tenant id":    match.TenantID,
		"product id":   match.ProductID,
		"external key": match.ExternalKey,
		"source id":    match.SourceID,
	} {
		if err := validateString(value, name); err != nil {
			return err
		}
	}
	switch match.Status {
	case model.StatusMatched, model.StatusNotMatched, model.StatusSuperseded:
	default:
		return fmt.Errorf("%w: unknown match status %q", common.ErrInvalidInput, match.Status)
	}
	if match.Score < 0 || match.Score > 1 {
		return fmt.Errorf("%w: score %v outside [0, 1]", common.ErrInvalidInput, match.Score)
	}
	if match.Version < 1 {
		return fmt.Errorf("%w: version must be at least 1", common.ErrInvalidInput)
	}
	return nil
}

// validateRule validates a matching rule row.
func validateRule(rule *model.MatchingRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule cannot be nil", common.ErrInvalidInput)
	}
	if err := validateString(rule.ID, "rule id"); err != nil {
		return err
	}
	if err := validateString(rule.Name, "rule name"); err != nil {
		return err
	}
	if rule.WeightName+rule.WeightBrand+rule.WeightGTIN+rule.WeightPrice <= 0 {
		return fmt.Errorf("%w: rule weights must sum to a positive total", common.ErrInvalidInput)
	}
	if rule.MinScore < 0 || rule.MinScore > 1 {
		return fmt.Errorf("%w: min score %v outside [0, 1]", common.ErrInvalidInput, rule.MinScore)
	}
	return nil
}

// validateSource validates a listing source row.
func validateSource(src *model.ListingSource) error {
	if src == nil {
		return fmt.Errorf("%w: source cannot be nil", common.ErrInvalidInput)
	}
	if err := validateString(src.ID, "source id"); err != nil {
		return err
	}
	if err := validateString(src.Code, "source code"); err != nil {
		return err
	}
	return validateString(src.Name, "source name")
}
