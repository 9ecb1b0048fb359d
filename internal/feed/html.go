package feed

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rajavignesh573/shopmatch/internal/common"
	"github.com/rajavignesh573/shopmatch/internal/model"
)

// ParseListingHTML extracts listings from a saved marketplace results page.
// Each listing is an element carrying data-external-key, with the remaining
// fields read from data attributes or conventional child classes:
//
//	<div data-external-key="B0A1" data-gtin="081..." data-category="strollers">
//	  <span class="title">UPPAbaby Vista V2</span>
//	  <span class="brand">UPPAbaby</span>
//	  <span class="price">$849.99</span>
//	</div>
//
// Listings missing a key or title are skipped rather than failing the page;
// scraped markup is never fully clean.
func ParseListingHTML(r io.Reader, sourceCode string) ([]model.ExternalListing, error) {
	if strings.TrimSpace(sourceCode) == "" {
		return nil, fmt.Errorf("%w: source code required for HTML feeds", common.ErrInvalidInput)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable HTML: %v", common.ErrInvalidInput, err)
	}

	now := time.Now()
	var listings []model.ExternalListing
	doc.Find("[data-external-key]").Each(func(_ int, s *goquery.Selection) {
		key := strings.TrimSpace(s.AttrOr("data-external-key", ""))
		title := normSpace(s.Find(".title").First().Text())
		if key == "" || title == "" {
			return
		}

		listing := model.ExternalListing{
			SourceCode:  sourceCode,
			ExternalKey: key,
			Title:       title,
			Brand:       normSpace(s.Find(".brand").First().Text()),
			CategoryID:  strings.TrimSpace(s.AttrOr("data-category", "")),
			GTIN:        strings.TrimSpace(s.AttrOr("data-gtin", "")),
			FetchedAt:   now,
		}
		if price, ok := parsePrice(s.Find(".price").First().Text()); ok {
			listing.Price = &price
		}
		listings = append(listings, listing)
	})

	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings found in page", common.ErrInvalidInput)
	}
	return listings, nil
}

// parsePrice reads "$1,299.99" style price text.
func parsePrice(text string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		default:
			return -1
		}
	}, text)
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
