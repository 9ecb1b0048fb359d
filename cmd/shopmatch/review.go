package main

import (
	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/service"
	"github.com/rajavignesh573/shopmatch/internal/tui"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <product-id>",
		Short: "Interactively review candidates and existing matches",
		Long: `Open the review screen for one product. Existing decisions are listed
first, followed by fresh proposals. Decisions are written as you make
them; removing a match supersedes it rather than deleting history.`,
		Args: cobra.ExactArgs(1),
		RunE: runReview,
	}

	cmd.Flags().StringSlice("sources", nil, "restrict to these source codes")
	cmd.Flags().String("rule", "", "matching rule id (default: the stored default rule)")
	cmd.Flags().String("session", "", "review session id (default: a fresh id per run)")
	cmd.Flags().Int("limit", 0, "maximum candidates to propose")

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
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

	product, err := a.store.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	sources, _ := cmd.Flags().GetStringSlice("sources")
	limit, _ := cmd.Flags().GetInt("limit")
	session, _ := cmd.Flags().GetString("session")

	return tui.Run(ctx, tui.Config{
		Reviewer:   &reviewerAdapter{app: a, rule: *rule},
		Product:    product,
		Filter:     service.CandidateFilter{Sources: sources, Limit: limit},
		TenantID:   a.cfg.TenantID,
		SessionID:  resolveSession(session),
		RuleID:     rule.ID,
		ReviewerID: reviewerID,
	})
}
