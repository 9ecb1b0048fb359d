package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/cli"
	"github.com/rajavignesh573/shopmatch/internal/service"
)

func candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates <product-id>",
		Short: "Generate ranked listing candidates for a product",
		Long: `Fetch listings from the active external sources, score them against the
product, and print the ranked candidates with per-field explanations.

Candidates are recomputed on every run; nothing is persisted until a
decision is confirmed.`,
		Args: cobra.ExactArgs(1),
		RunE: runCandidates,
	}

	cmd.Flags().StringSlice("sources", nil, "restrict to these source codes")
	cmd.Flags().String("brand", "", "brand filter passed to sources")
	cmd.Flags().String("category", "", "category filter passed to sources")
	cmd.Flags().Float64("price-band", 0, "price band percent (0 uses the rule's band)")
	cmd.Flags().Int("limit", 0, "maximum candidates to return")
	cmd.Flags().String("rule", "", "matching rule id (default: the stored default rule)")

	return cmd
}

func runCandidates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ruleID, _ := cmd.Flags().GetString("rule")
	rule, err := a.resolveRule(ctx, ruleID)
	if err != nil {
		return err
	}

	sources, _ := cmd.Flags().GetStringSlice("sources")
	brand, _ := cmd.Flags().GetString("brand")
	category, _ := cmd.Flags().GetString("category")
	band, _ := cmd.Flags().GetFloat64("price-band")
	limit, _ := cmd.Flags().GetInt("limit")

	result, err := a.generator.GetCandidates(ctx, args[0], service.CandidateFilter{
		Sources:      sources,
		Brand:        brand,
		CategoryID:   category,
		PriceBandPct: band,
		Limit:        limit,
	}, *rule)
	if err != nil {
		return err
	}

	product, err := a.store.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	cli.RenderCandidates(os.Stdout, product, result)
	return nil
}
