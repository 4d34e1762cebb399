package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/dbx"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

const articleColumns = `id, slug, title, content, status, type, category, excerpt,
	featured_image, seo_title, seo_description, nft_transaction_hash,
	nft_metadata_uri, author_id, published_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func scanArticle(row interface{ Scan(dest ...any) error }) (*Article, error) {
	a := &Article{}
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Content, &a.Status, &a.Type,
		&a.Category, &a.Excerpt, &a.FeaturedImage, &a.SeoTitle,
		&a.SeoDescription, &a.NftTransactionHash, &a.NftMetadataUri,
		&a.AuthorID, &a.PublishedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, article *Article) (*Article, error) {

	query := `INSERT INTO articles (slug, title, content, status, type, category,
		 excerpt, featured_image, seo_title, seo_description,
		 nft_transaction_hash, nft_metadata_uri, author_id, published_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	 RETURNING id, created_at
	 `

	err := r.db.QueryRowContext(ctx, query,
		article.Slug, article.Title, article.Content, string(article.Status),
		string(article.Type), article.Category, article.Excerpt,
		article.FeaturedImage, article.SeoTitle, article.SeoDescription,
		article.NftTransactionHash, article.NftMetadataUri, article.AuthorID,
		article.PublishedAt).Scan(&article.ID, &article.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return article, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE slug = $1`

	a, err := scanArticle(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, adminView bool) ([]*Article, error) {

	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if !adminView {
		query += ` WHERE status = $1 AND type = $2`
		args = append(args, string(StatusPublished), string(TypePost))
	}
	query += ` ORDER BY published_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return out, nil
}

func (r *PostgresRepository) ListNavPages(ctx context.Context) ([]*NavPage, error) {

	query := `SELECT id, title FROM articles WHERE type = $1 AND status = $2`

	rows, err := r.db.QueryContext(ctx, query, string(TypePage), string(StatusPublished))
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []*NavPage
	for rows.Next() {
		p := &NavPage{}
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, article *Article) (*Article, error) {

	query := `UPDATE articles SET slug = $2, title = $3, content = $4, status = $5,
		 type = $6, category = $7, excerpt = $8, featured_image = $9,
		 seo_title = $10, seo_description = $11, nft_transaction_hash = $12,
		 nft_metadata_uri = $13
	 WHERE id = $1
	 RETURNING ` + articleColumns

	a, err := scanArticle(r.db.QueryRowContext(ctx, query,
		article.ID, article.Slug, article.Title, article.Content,
		string(article.Status), string(article.Type), article.Category,
		article.Excerpt, article.FeaturedImage, article.SeoTitle,
		article.SeoDescription, article.NftTransactionHash,
		article.NftMetadataUri))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading result: %v", err)
	}
	if affected == 0 {
		return shared.ErrorNotFound
	}

	return nil
}
