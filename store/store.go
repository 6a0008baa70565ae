package store

import (
	"context"
)

// Store is the interface that every paginatable record collection must implement
type Store interface {
	// Count returns the number of records matching filter
	// Paging options never apply - it counts all matching records
	// Example: total, err := s.Count(ctx, bson.M{"name": "Alice"})
	Count(ctx context.Context, filter interface{}) (int64, error)

	// Find runs the filter with opts applied and stores the records in dest (must be a pointer to a slice)
	// Example: var users []User; err := s.Find(ctx, bson.M{}, &store.FindOptions{Limit: 10}, &users)
	Find(ctx context.Context, filter interface{}, opts *FindOptions, dest interface{}) error

	// Name returns the name of this store
	Name() string

	// Close cleans up any resources used by the store
	Close() error
}

// SnapshotFinder is implemented by stores able to count and fetch a page in a single read,
// so the total and the returned records observe the same data
type SnapshotFinder interface {
	// FindPage behaves like Find and additionally returns the total number of records matching filter
	FindPage(ctx context.Context, filter interface{}, opts *FindOptions, dest interface{}) (int64, error)
}

// FindOptions contains the per-query options handed to a store
type FindOptions struct {
	// Select is the field projection (empty means all fields)
	Select Projection

	// Sort is the ordering of the result (empty means store order)
	Sort Sort

	// Populate lists the reference fields to expand after fetching
	Populate []Populate

	// Skip is the number of matching records to skip
	Skip int64

	// Limit is the maximum number of records to return, 0 means no limit
	Limit int64
}
