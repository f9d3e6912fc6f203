package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
)

// UserDirectory resolves users for authentication and the request gate.
type UserDirectory struct {
	Users store.Users
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := d.Users.GetUserByUsername(ctx, username)
	return u, notFound(err, "user", "username", username)
}

func (d *UserDirectory) FindByID(ctx context.Context, id int64) (domain.User, error) {
	u, err := d.Users.GetUserByID(ctx, id)
	return u, notFound(err, "user", "id", id)
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := d.Users.GetUserByEmail(ctx, email)
	return u, notFound(err, "user", "email", email)
}

// ResolveUsername treats identifiers containing "@" as emails.
func (d *UserDirectory) ResolveUsername(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if !strings.Contains(identifier, "@") {
		return identifier, nil
	}
	u, err := d.FindByEmail(ctx, identifier)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func notFound(err error, entity, field string, value any) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Entity: entity, Field: field, Value: value}
	}
	return err
}
