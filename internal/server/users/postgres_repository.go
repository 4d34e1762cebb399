package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/dbx"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	query :=
		`INSERT INTO users (address, role)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Address, string(user.Role)).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (*User, error) {
	query :=
		`SELECT id, address, role, created_at FROM users
		 WHERE address = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, address).Scan(&user.ID, &user.Address, &user.Role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role Role) (*User, error) {
	query :=
		`UPDATE users SET role = $2
		 WHERE id = $1
		 RETURNING id, address, role, created_at
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id, string(role)).Scan(&user.ID, &user.Address, &user.Role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}
