// Package vectorstore persists chunk embeddings and serves approximate
// nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"fmt"
)

// Result is a single ANN search hit.
type Result struct {
	ID       string  // chunk id
	Distance float32 // lower is more similar
	Score    float32 // normalized similarity in [0,1]
}

// Config configures a Store.
type Config struct {
	// Dimensions is the vector dimension every stored vector must match.
	Dimensions int

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultConfig returns sensible defaults for the given dimensionality.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions: dimensions,
		M:          16,
		EfSearch:   20,
	}
}

// Store is the vector-store contract (spec §6): upsert by id, ANN
// search, delete by id, and persistence to disk.
type Store interface {
	// Add inserts or replaces vectors under ids.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search returns up to k nearest neighbours of query.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Delete removes vectors by id.
	Delete(ctx context.Context, ids []string) error

	// DeleteByPrefix removes every id with the given prefix, for stores
	// without predicate delete (spec §4.9 "Delete semantics").
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Count returns the number of live vectors.
	Count() int

	// Save persists the store to path.
	Save(path string) error

	// Load restores the store from path.
	Load(path string) error

	// Close releases resources.
	Close() error
}

// ErrDimensionMismatch indicates a vector's length does not match the
// store's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
