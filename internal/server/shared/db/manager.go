// Package db wires the storage backends behind a single manager. The
// Postgres manager is used when a DSN is configured; the in-memory manager
// backs local development and tests.
package db

import (
	"context"
	"database/sql"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Articles() articles.Repository
}
