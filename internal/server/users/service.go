package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/shared"
)

// Service resolves wallet addresses to durable user records and keeps the
// stored role in sync with the static admin allow-list.
type Service struct {
	repo   Repository
	admins map[string]struct{}
}

func NewService(repo Repository, adminAddresses []string) *Service {
	admins := make(map[string]struct{}, len(adminAddresses))
	for _, a := range adminAddresses {
		admins[strings.ToLower(a)] = struct{}{}
	}
	return &Service{repo: repo, admins: admins}
}

// IsAllowListed reports whether the address is in the static admin list.
func (s *Service) IsAllowListed(address string) bool {
	_, ok := s.admins[strings.ToLower(address)]
	return ok
}

// Resolve returns the user record for an address, creating it on first
// contact. Allow-listed addresses always come back as ADMIN: an existing
// record with a different role is promoted on read. Non-admin roles are
// never downgraded here. The operation is idempotent — with an unchanged
// allow-list a second call issues no further writes.
func (s *Service) Resolve(ctx context.Context, address string) (*User, error) {

	address = strings.ToLower(address)

	user, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, shared.ErrorNotFound) {
			return nil, fmt.Errorf("error loading user: %w", err)
		}

		role := RoleUser
		if s.IsAllowListed(address) {
			role = RoleAdmin
		}

		user, err = s.repo.Create(ctx, &User{Address: address, Role: role})
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, shared.ErrorAlreadyExists) {
			return nil, fmt.Errorf("error creating user: %w", err)
		}

		// Lost a concurrent create; fall through to the stored record.
		user, err = s.repo.GetByAddress(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("error loading user: %w", err)
		}
	}

	expected := user.Role
	if s.IsAllowListed(address) {
		expected = RoleAdmin
	}

	if expected != user.Role {
		user, err = s.repo.UpdateRole(ctx, user.ID, expected)
		if err != nil {
			return nil, fmt.Errorf("error syncing role: %w", err)
		}
	}

	return user, nil
}
