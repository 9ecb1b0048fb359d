package model

import "time"

// ListingSource is an administrator-managed external source definition.
// The short code (e.g. "AMZ") is unique and is what listings reference.
type ListingSource struct {
	CreatedAt time.Time
	ID        string
	Name      string
	Code      string
	Config    string
	IsActive  bool
}
