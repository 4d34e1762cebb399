package articles

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/google/uuid"
)

// InMemoryRepository keeps articles in maps. It backs tests and DSN-less
// development runs with the same semantics as the Postgres repository,
// including the unique-slug constraint.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*Article
	bySlug map[string]*Article
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:   make(map[string]*Article),
		bySlug: make(map[string]*Article),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, article *Article) (*Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySlug[article.Slug]; ok {
		return nil, shared.ErrorAlreadyExists
	}

	stored := *article
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()

	r.byID[stored.ID] = &stored
	r.bySlug[stored.Slug] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (r *InMemoryRepository) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySlug[slug]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (r *InMemoryRepository) List(ctx context.Context, adminView bool) ([]*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Article, 0, len(r.byID))
	for _, a := range r.byID {
		if !adminView && (a.Status != StatusPublished || a.Type != TypePost) {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	return out, nil
}

func (r *InMemoryRepository) ListNavPages(ctx context.Context) ([]*NavPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*NavPage
	for _, a := range r.byID {
		if a.Type == TypePage && a.Status == StatusPublished {
			out = append(out, &NavPage{ID: a.ID, Title: a.Title})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })

	return out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, article *Article) (*Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[article.ID]
	if !ok {
		return nil, shared.ErrorNotFound
	}

	if article.Slug != current.Slug {
		if _, taken := r.bySlug[article.Slug]; taken {
			return nil, shared.ErrorAlreadyExists
		}
		delete(r.bySlug, current.Slug)
	}

	stored := *article
	stored.CreatedAt = current.CreatedAt

	r.byID[stored.ID] = &stored
	r.bySlug[stored.Slug] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return shared.ErrorNotFound
	}

	delete(r.bySlug, a.Slug)
	delete(r.byID, id)

	return nil
}
