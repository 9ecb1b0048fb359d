package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/rajavignesh573/shopmatch/internal/model"
)

// ProductWriter persists batches of catalog products.
type ProductWriter interface {
	SaveProducts(ctx context.Context, products []model.Product) error
}

// ListingWriter persists batches of external listings.
type ListingWriter interface {
	SaveListings(ctx context.Context, listings []model.ExternalListing) error
}

const defaultBatchSize = 100

// Importer writes parsed feed records to storage in batches, showing
// progress on long imports.
type Importer struct {
	products  ProductWriter
	listings  ListingWriter
	out       io.Writer
	batchSize int
}

// NewImporter creates an importer. Progress output goes to out; pass
// io.Discard to silence it.
func NewImporter(products ProductWriter, listings ListingWriter, out io.Writer) *Importer {
	return &Importer{
		products:  products,
		listings:  listings,
		out:       out,
		batchSize: defaultBatchSize,
	}
}

// ImportProducts saves all products, returning the count written.
func (im *Importer) ImportProducts(ctx context.Context, products []model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	bar := im.newBar(len(products), "Importing products...")
	for start := 0; start < len(products); start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return start, err
		}
		end := min(start+im.batchSize, len(products))
		if err := im.products.SaveProducts(ctx, products[start:end]); err != nil {
			return start, fmt.Errorf("failed to import products: %w", err)
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	slog.Info("Imported products", "count", len(products))
	return len(products), nil
}

// ImportListings saves all listings, returning the count written.
func (im *Importer) ImportListings(ctx context.Context, listings []model.ExternalListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	bar := im.newBar(len(listings), "Importing listings...")
	for start := 0; start < len(listings); start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return start, err
		}
		end := min(start+im.batchSize, len(listings))
		if err := im.listings.SaveListings(ctx, listings[start:end]); err != nil {
			return start, fmt.Errorf("failed to import listings: %w", err)
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	slog.Info("Imported listings", "count", len(listings))
	return len(listings), nil
}

func (im *Importer) newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(im.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
	)
}
