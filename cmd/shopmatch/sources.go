package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/cli"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage external listing sources",
	}

	cmd.AddCommand(sourcesAddCmd())
	cmd.AddCommand(sourcesListCmd())
	cmd.AddCommand(sourcesToggleCmd("enable", true))
	cmd.AddCommand(sourcesToggleCmd("disable", false))

	return cmd
}

func sourcesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Register a listing source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			config, _ := cmd.Flags().GetString("source-config")
			source := &model.ListingSource{
				ID:       uuid.NewString(),
				Code:     args[0],
				Name:     args[1],
				Config:   config,
				IsActive: true,
			}
			if err := a.store.SaveSource(ctx, source); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
				fmt.Sprintf("Registered source %s (%s)", source.Code, source.Name)))
			return nil
		},
	}

	// Named to avoid shadowing the root --config (config file path).
	cmd.Flags().String("source-config", "", "source-specific configuration blob")
	return cmd
}

func sourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sources, err := a.store.ListSources(ctx)
			if err != nil {
				return err
			}

			cli.RenderSources(os.Stdout, sources)
			return nil
		},
	}
}

func sourcesToggleCmd(use string, active bool) *cobra.Command {
	short := "Disable a source without deleting it"
	if active {
		short = "Re-enable a disabled source"
	}
	return &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SetSourceActive(ctx, args[0], active); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
				fmt.Sprintf("Source %s is now %s", args[0], map[bool]string{true: "active", false: "inactive"}[active])))
			return nil
		},
	}
}
