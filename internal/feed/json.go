// Package feed parses catalog and listing feeds and imports them into
// storage. Two feed shapes are supported: JSON exports and scraped HTML
// listing pages.
package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

type productRecord struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Brand      string   `json:"brand"`
	CategoryID string   `json:"category_id"`
	GTIN       string   `json:"gtin"`
	Price      *float64 `json:"price"`
}

type listingRecord struct {
	SourceCode  string   `json:"source_code"`
	ExternalKey string   `json:"external_key"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	CategoryID  string   `json:"category_id"`
	GTIN        string   `json:"gtin"`
	Price       *float64 `json:"price"`
}

// ParseProductFeed decodes a JSON array of catalog products.
func ParseProductFeed(r io.Reader) ([]model.Product, error) {
	var records []productRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: invalid product feed: %v", common.ErrInvalidInput, err)
	}

	now := time.Now()
	products := make([]model.Product, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" || rec.Title == "" {
			return nil, fmt.Errorf("%w: product record %d missing id or title", common.ErrInvalidInput, i)
		}
		products = append(products, model.Product{
			ID:         rec.ID,
			Title:      rec.Title,
			Brand:      rec.Brand,
			CategoryID: rec.CategoryID,
			GTIN:       rec.GTIN,
			Price:      rec.Price,
			CreatedAt:  now,
		})
	}
	return products, nil
}

// ParseListingFeed decodes a JSON array of external listings. A non-empty
// sourceCode overrides whatever the records carry, so one feed file can be
// imported under the source it was fetched for.
func ParseListingFeed(r io.Reader, sourceCode string) ([]model.ExternalListing, error) {
	var records []listingRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: invalid listing feed: %v", common.ErrInvalidInput, err)
	}

	now := time.Now()
	listings := make([]model.ExternalListing, 0, len(records))
	for i, rec := range records {
		code := sourceCode
		if code == "" {
			code = rec.SourceCode
		}
		if code == "" || rec.ExternalKey == "" || rec.Title == "" {
			return nil, fmt.Errorf("%w: listing record %d missing source, key, or title", common.ErrInvalidInput, i)
		}
		listings = append(listings, model.ExternalListing{
			SourceCode:  code,
			ExternalKey: rec.ExternalKey,
			Title:       rec.Title,
			Brand:       rec.Brand,
			CategoryID:  rec.CategoryID,
			GTIN:        rec.GTIN,
			Price:       rec.Price,
			FetchedAt:   now,
		})
	}
	return listings, nil
}
