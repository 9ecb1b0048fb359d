package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajavignesh573/shopmatch/internal/cli"
	"github.com/rajavignesh573/shopmatch/internal/feed"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalog products and external listings",
	}

	cmd.AddCommand(importProductsCmd())
	cmd.AddCommand(importListingsCmd())

	return cmd
}

func importProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <file>",
		Short: "Import a JSON product feed into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open feed: %w", err)
			}
			defer func() { _ = file.Close() }()

			products, err := feed.ParseProductFeed(file)
			if err != nil {
				return err
			}

			importer := feed.NewImporter(a.store, a.store, os.Stderr)
			count, err := importer.ImportProducts(ctx, products)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
				fmt.Sprintf("Imported %d products", count)))
			return nil
		},
	}
}

func importListingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings <file>",
		Short: "Import a listing feed for one source",
		Long: `Import external listings from a JSON feed or a saved HTML results page.
JSON feeds may carry their own source_code per record; --source overrides
it. HTML pages always require --source.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportListings,
	}

	cmd.Flags().String("source", "", "source code the listings belong to")
	cmd.Flags().String("format", "json", "feed format (json or html)")

	return cmd
}

func runImportListings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sourceCode, _ := cmd.Flags().GetString("source")
	format, _ := cmd.Flags().GetString("format")

	if sourceCode != "" {
		// Fail before parsing if the source is unknown.
		if _, err := a.store.GetSourceByCode(ctx, sourceCode); err != nil {
			return err
		}
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer func() { _ = file.Close() }()

	var listings []model.ExternalListing
	switch format {
	case "json":
		listings, err = feed.ParseListingFeed(file, sourceCode)
	case "html":
		listings, err = feed.ParseListingHTML(file, sourceCode)
	default:
		return fmt.Errorf("unknown feed format %q", format)
	}
	if err != nil {
		return err
	}

	importer := feed.NewImporter(a.store, a.store, os.Stderr)
	count, err := importer.ImportListings(ctx, listings)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render(
		fmt.Sprintf("Imported %d listings", count)))
	return nil
}
