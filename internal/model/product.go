// Package model defines the core domain models used throughout the application.
package model

import "time"

// Product is a row from the merchant's local catalog. The matching core only
// reads products; ownership stays with the catalog.
type Product struct {
	CreatedAt  time.Time
	ID         string
	Title      string
	Brand      string
	CategoryID string
	GTIN       string
	Price      *float64
}

// ExternalListing is one listing from an external source, identified by
// (SourceCode, ExternalKey). Listings are supplied per request and are not
// owned by the matching core.
type ExternalListing struct {
	FetchedAt   time.Time
	SourceCode  string
	ExternalKey string
	Title       string
	Brand       string
	CategoryID  string
	GTIN        string
	Price       *float64
}
