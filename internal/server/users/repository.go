package users

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByAddress(ctx context.Context, address string) (*User, error)
	UpdateRole(ctx context.Context, id string, role Role) (*User, error)
}
