package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
)

type UserService struct {
	Store  store.Store
	Hasher PasswordHasher
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	return u, notFound(err, "user", "id", userID)
}

// Register creates a ROLE_USER account.
func (s *UserService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	return s.create(ctx, username, email, password, []domain.Role{domain.RoleUser})
}

// EnsureAdmin creates an admin account unless the username is already taken.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	_, err := s.create(ctx, username, email, password, []domain.Role{domain.RoleUser, domain.RoleAdmin})
	if errors.Is(err, ErrAlreadyExists) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserService) create(ctx context.Context, username, email, password string, roles []domain.Role) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateCredentials(username, email, password); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Store.Users().CreateUser(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, fmt.Errorf("user %q or email %q: %w", username, email, ErrAlreadyExists)
	}
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created", "user_id", u.ID, "username", u.Username, "roles", domain.JoinRoles(u.Roles))
	return u, nil
}

func validateCredentials(username, email, password string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < minUsernameLen || n > maxUsernameLen:
		return &ValidationError{Field: "username", Message: fmt.Sprintf("must be %d-%d characters", minUsernameLen, maxUsernameLen)}
	case strings.ContainsAny(username, "@ \t\n"):
		return &ValidationError{Field: "username", Message: "must not contain '@' or whitespace"}
	}

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "must be a valid address"}
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	return nil
}
