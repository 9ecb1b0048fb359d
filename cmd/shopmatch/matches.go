package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/cli"
	"github.com/rajavignesh573/shopmatch/internal/matches"
	"github.com/rajavignesh573/shopmatch/internal/model"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

func matchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Inspect and manage match decisions",
	}

	cmd.AddCommand(matchesListCmd())
	cmd.AddCommand(matchesConfirmCmd())
	cmd.AddCommand(matchesRemoveCmd())

	return cmd
}

func matchesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List match history, newest first",
		RunE:  runMatchesList,
	}

	cmd.Flags().String("product", "", "filter by product id")
	cmd.Flags().String("external-key", "", "filter by external listing key")
	cmd.Flags().String("source", "", "filter by source id")
	cmd.Flags().String("reviewed-by", "", "filter by reviewer")
	cmd.Flags().String("status", "", "filter by status (matched, not_matched, superseded)")
	cmd.Flags().Int("limit", 0, "page size")
	cmd.Flags().Int("offset", 0, "page offset")

	return cmd
}

func runMatchesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	product, _ := cmd.Flags().GetString("product")
	externalKey, _ := cmd.Flags().GetString("external-key")
	source, _ := cmd.Flags().GetString("source")
	reviewedBy, _ := cmd.Flags().GetString("reviewed-by")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	rows, err := a.lifecycle.List(ctx, service.MatchFilter{
		TenantID:    a.cfg.TenantID,
		ProductID:   product,
		ExternalKey: externalKey,
		SourceID:    source,
		ReviewedBy:  reviewedBy,
		Status:      model.MatchStatus(status),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return err
	}

	cli.RenderMatches(os.Stdout, rows)
	return nil
}

func matchesConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <product-id> <source-code> <external-key>",
		Short: "Record a match decision without the review screen",
		Args:  cobra.ExactArgs(3),
		RunE:  runMatchesConfirm,
	}

	cmd.Flags().String("status", string(model.StatusMatched), "decision (matched or not_matched)")
	cmd.Flags().Float64("score", 0, "similarity score to record")
	cmd.Flags().Float64("price-delta", 0, "price delta percent to record")
	cmd.Flags().String("rule", "", "matching rule id")
	cmd.Flags().String("session", "", "review session id")
	cmd.Flags().String("notes", "", "free-form notes")

	return cmd
}

func runMatchesConfirm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reviewerID, err := a.requireReviewer()
	if err != nil {
		return err
	}

	ruleID, _ := cmd.Flags().GetString("rule")
	rule, err := a.resolveRule(ctx, ruleID)
	if err != nil {
		return err
	}

	status, _ := cmd.Flags().GetString("status")
	score, _ := cmd.Flags().GetFloat64("score")
	priceDelta, _ := cmd.Flags().GetFloat64("price-delta")
	session, _ := cmd.Flags().GetString("session")
	notes, _ := cmd.Flags().GetString("notes")

	match, err := a.lifecycle.Confirm(ctx, matches.ConfirmInput{
		TenantID:      a.cfg.TenantID,
		ProductID:     args[0],
		SourceCode:    args[1],
		ExternalKey:   args[2],
		RuleID:        rule.ID,
		SessionID:     resolveSession(session),
		Notes:         notes,
		Status:        model.MatchStatus(status),
		Score:         score,
		PriceDeltaPct: priceDelta,
	}, reviewerID)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
		fmt.Sprintf("Recorded %s as %s (id %s, version %d)",
			match.ExternalKey, match.Status, match.ID, match.Version)))
	return nil
}

func matchesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <match-id>",
		Short: "Supersede a match decision",
		Long: `Mark a decision as superseded. The row is kept for audit; the pair
becomes available for a fresh decision.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			reviewerID, err := a.requireReviewer()
			if err != nil {
				return err
			}

			if err := a.lifecycle.Remove(ctx, args[0], reviewerID); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
				fmt.Sprintf("Superseded match %s", args[0])))
			return nil
		},
	}
}
