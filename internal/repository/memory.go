package repository

import (
	"context"
	"sync"

	"github.com/weswalla/logjam/internal/domain"
)

// MemoryRepository is an in-memory Repository, used by tests and as a
// lightweight alternative to the SQLite-backed implementation.
type MemoryRepository struct {
	mu    sync.RWMutex
	pages map[domain.PageID]*domain.Page
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pages: make(map[domain.PageID]*domain.Page)}
}

// Save stores page, replacing any existing page with the same id.
func (r *MemoryRepository) Save(_ context.Context, page *domain.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[page.ID()] = page
	return nil
}

// FindByID returns the page with id.
func (r *MemoryRepository) FindByID(_ context.Context, id domain.PageID) (*domain.Page, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pages[id]
	return p, ok, nil
}

// FindByTitle returns the first page (in map iteration order) with the
// given title.
func (r *MemoryRepository) FindByTitle(_ context.Context, title string) (*domain.Page, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pages {
		if p.Title() == title {
			return p, true, nil
		}
	}
	return nil, false, nil
}

// FindAll returns every stored page.
func (r *MemoryRepository) FindAll(_ context.Context) ([]*domain.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, p)
	}
	return out, nil
}

// Delete removes the page with id.
func (r *MemoryRepository) Delete(_ context.Context, id domain.PageID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pages[id]; !ok {
		return false, nil
	}
	delete(r.pages, id)
	return true, nil
}
