package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/cli"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage matching rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesSetDefaultCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored matching rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.store.ListRules(ctx)
			if err != nil {
				return err
			}

			cli.RenderRules(os.Stdout, rules)
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Create or update a matching rule",
		Args:  cobra.ExactArgs(2),
		RunE:  runRulesAdd,
	}

	defaults := model.DefaultRule()
	cmd.Flags().String("algorithm", string(defaults.Algorithm), "string metric (jaro_winkler or levenshtein)")
	cmd.Flags().Float64("weight-name", defaults.WeightName, "name similarity weight")
	cmd.Flags().Float64("weight-brand", defaults.WeightBrand, "brand similarity weight")
	cmd.Flags().Float64("weight-gtin", defaults.WeightGTIN, "GTIN similarity weight")
	cmd.Flags().Float64("weight-price", defaults.WeightPrice, "price similarity weight")
	cmd.Flags().Float64("price-band", defaults.PriceBandPct, "candidate price band percent")
	cmd.Flags().Float64("min-score", defaults.MinScore, "minimum candidate score")
	cmd.Flags().Bool("default", false, "make this the default rule")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	algorithm, _ := cmd.Flags().GetString("algorithm")
	weightName, _ := cmd.Flags().GetFloat64("weight-name")
	weightBrand, _ := cmd.Flags().GetFloat64("weight-brand")
	weightGTIN, _ := cmd.Flags().GetFloat64("weight-gtin")
	weightPrice, _ := cmd.Flags().GetFloat64("weight-price")
	priceBand, _ := cmd.Flags().GetFloat64("price-band")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	isDefault, _ := cmd.Flags().GetBool("default")

	rule := &model.MatchingRule{
		ID:           args[0],
		Name:         args[1],
		Algorithm:    model.Algorithm(algorithm),
		WeightName:   weightName,
		WeightBrand:  weightBrand,
		WeightGTIN:   weightGTIN,
		WeightPrice:  weightPrice,
		PriceBandPct: priceBand,
		MinScore:     minScore,
	}
	if err := a.store.SaveRule(ctx, rule); err != nil {
		return err
	}
	if isDefault {
		if err := a.store.SetDefaultRule(ctx, rule.ID); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
		fmt.Sprintf("Saved rule %s (%s)", rule.ID, rule.Name)))
	return nil
}

func rulesSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <id>",
		Short: "Make a rule the default for scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SetDefaultRule(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
				fmt.Sprintf("Rule %s is now the default", args[0])))
			return nil
		},
	}
}
