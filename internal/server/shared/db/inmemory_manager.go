package db

import (
	"context"
	"database/sql"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
)

type InMemoryRepositoryManager struct {
	users    users.Repository
	articles articles.Repository
}

func (m InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m InMemoryRepositoryManager) Articles() articles.Repository {
	return m.articles
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return InMemoryRepositoryManager{
		users:    users.NewInMemoryRepository(),
		articles: articles.NewInMemoryRepository(),
	}
}
