package articles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/google/uuid"
)

// maxSlugAttempts bounds the suffix-and-retry loop on slug collisions.
const maxSlugAttempts = 100

// PublishResult reports the outcome of a publish with an optional NFT
// anchor. The anchor step is best-effort: AnchorErr set with AnchorAttached
// false means the article persisted but the anchor fields did not.
type PublishResult struct {
	Article        *Article
	AnchorAttached bool
	AnchorErr      error
}

// Service orchestrates the publishing workflow on top of the article
// repository: author resolution, defaults, slug uniqueness and the
// best-effort anchor attachment.
type Service struct {
	repo           Repository
	users          *users.Service
	logger         logging.Logger
	fallbackAuthor string
}

// NewService builds the workflow. fallbackAuthor is the address attributed
// to unauthenticated submissions; empty disables anonymous publishing.
func NewService(repo Repository, us *users.Service, logger logging.Logger, fallbackAuthor string) *Service {
	return &Service{
		repo:           repo,
		users:          us,
		logger:         logger.With("module", "publishing"),
		fallbackAuthor: fallbackAuthor,
	}
}

// EffectiveAuthor picks the author address for a submission: the
// authenticated session address when present, otherwise the configured
// fallback. Returns ErrorUnauthorized when neither applies.
func (s *Service) EffectiveAuthor(ctx context.Context, sessionAddress string) (string, error) {
	if sessionAddress != "" {
		return sessionAddress, nil
	}
	if s.fallbackAuthor == "" {
		return "", shared.ErrorUnauthorized
	}
	s.logger.Warn(ctx, "unauthenticated submission attributed to fallback author", "address", s.fallbackAuthor)
	return s.fallbackAuthor, nil
}

// Create stores a new article for authorAddress, applying defaults and
// resolving a unique slug. On a slug collision the numeric suffix is bumped
// and the insert retried, producing base, base-1, base-2, … in creation
// order without a separate existence probe.
func (s *Service) Create(ctx context.Context, draft Draft, authorAddress string) (*Article, error) {

	author, err := s.users.Resolve(ctx, authorAddress)
	if err != nil {
		return nil, fmt.Errorf("error resolving author: %w", err)
	}

	article := &Article{
		Title:              draft.Title,
		Content:            draft.Content,
		Status:             draft.Status,
		Type:               draft.Type,
		Category:           draft.Category,
		Excerpt:            draft.Excerpt,
		FeaturedImage:      draft.FeaturedImage,
		SeoTitle:           draft.SeoTitle,
		SeoDescription:     draft.SeoDescription,
		NftTransactionHash: draft.NftTransactionHash,
		NftMetadataUri:     draft.NftMetadataUri,
		AuthorID:           author.ID,
		PublishedAt:        time.Now(),
	}

	if article.Status == "" {
		article.Status = StatusDraft
	}
	if article.Type == "" {
		article.Type = TypePost
	}
	if article.Category == "" {
		article.Category = "General"
	}

	baseSlug := draft.Slug
	if baseSlug == "" {
		baseSlug = Slugify(draft.Title)
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := baseSlug
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", baseSlug, attempt)
		}
		article.Slug = candidate

		created, err := s.repo.Create(ctx, article)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, shared.ErrorAlreadyExists) {
			return nil, fmt.Errorf("error creating article: %w", err)
		}
	}

	return nil, fmt.Errorf("error creating article: no free slug for %q", baseSlug)
}

// Update overwrites the editable fields of an article. The slug is kept
// unless the draft supplies a non-empty one, so permalinks stay stable.
func (s *Service) Update(ctx context.Context, id string, draft Draft) (*Article, error) {

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Title = draft.Title
	current.Content = draft.Content
	current.Status = draft.Status
	current.Type = draft.Type
	current.Category = draft.Category
	current.Excerpt = draft.Excerpt
	current.FeaturedImage = draft.FeaturedImage
	current.SeoTitle = draft.SeoTitle
	current.SeoDescription = draft.SeoDescription
	current.NftTransactionHash = draft.NftTransactionHash
	current.NftMetadataUri = draft.NftMetadataUri

	if draft.Slug != "" {
		current.Slug = draft.Slug
	}

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("error updating article: %w", err)
	}

	return updated, nil
}

// Delete removes an article unconditionally. The author record stays.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Get looks an article up by canonical ID or slug; UUID-shaped identifiers
// are treated as IDs, anything else as a slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Article, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.GetByID(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

// List returns the feed visible to viewerRole. ADMIN and EDITOR see every
// article of every type and status; everyone else sees only published posts.
func (s *Service) List(ctx context.Context, viewerRole users.Role) ([]*Article, error) {
	return s.repo.List(ctx, viewerRole.AdminEquivalent())
}

// NavPages returns the public navigation pages.
func (s *Service) NavPages(ctx context.Context) ([]*NavPage, error) {
	return s.repo.ListNavPages(ctx)
}

// PublishAndAnchor creates the article first and then attaches the NFT
// anchor pair in a second, best-effort update. A failed anchor step leaves
// the article persisted and is reported in the result, not as an error.
func (s *Service) PublishAndAnchor(ctx context.Context, draft Draft, authorAddress string) (*PublishResult, error) {

	txHash, metaURI := draft.NftTransactionHash, draft.NftMetadataUri
	draft.NftTransactionHash = ""
	draft.NftMetadataUri = ""

	article, err := s.Create(ctx, draft, authorAddress)
	if err != nil {
		return nil, err
	}

	if txHash == "" && metaURI == "" {
		return &PublishResult{Article: article}, nil
	}

	anchored := *article
	anchored.NftTransactionHash = txHash
	anchored.NftMetadataUri = metaURI

	updated, err := s.repo.Update(ctx, &anchored)
	if err != nil {
		s.logger.Error(ctx, "anchor attachment failed", "article", article.ID, "error", err.Error())
		return &PublishResult{Article: article, AnchorErr: err}, nil
	}

	return &PublishResult{Article: updated, AnchorAttached: true}, nil
}
