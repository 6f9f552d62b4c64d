// Package repository persists domain.Page aggregates, polymorphic over
// storage backend.
package repository

import (
	"context"

	"github.com/weswalla/logjam/internal/domain"
)

// Repository is the page aggregate's persistence contract.
type Repository interface {
	// Save upserts page: if its id already exists, it is fully replaced.
	Save(ctx context.Context, page *domain.Page) error

	// FindByID returns the page with id, or ok=false if absent.
	FindByID(ctx context.Context, id domain.PageID) (*domain.Page, bool, error)

	// FindByTitle returns the first page with the given title, or
	// ok=false if none match.
	FindByTitle(ctx context.Context, title string) (*domain.Page, bool, error)

	// FindAll returns every stored page.
	FindAll(ctx context.Context) ([]*domain.Page, error)

	// Delete removes the page with id. Returns removed=true iff a page
	// was actually deleted.
	Delete(ctx context.Context, id domain.PageID) (bool, error)
}
