package articles

import (
	"context"
)

// Repository is the durable article store. Create returns
// shared.ErrorAlreadyExists when the slug is already taken, so callers can
// bump the suffix and retry without a separate existence probe.
type Repository interface {
	Create(ctx context.Context, article *Article) (*Article, error)
	GetByID(ctx context.Context, id string) (*Article, error)
	GetBySlug(ctx context.Context, slug string) (*Article, error)

	// List returns articles ordered by published_at descending. With
	// adminView false only PUBLISHED POSTs are returned.
	List(ctx context.Context, adminView bool) ([]*Article, error)

	// ListNavPages returns id/title of PUBLISHED PAGEs, for everyone.
	ListNavPages(ctx context.Context) ([]*NavPage, error)

	Update(ctx context.Context, article *Article) (*Article, error)
	Delete(ctx context.Context, id string) error
}
