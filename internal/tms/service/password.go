package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
)

// PasswordHasher is satisfied by cryptox.Argon2Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) error
}

// Authenticator checks a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

// PasswordAuthenticator verifies against the stored hash. Unknown users and
// wrong passwords both yield ErrAuthenticationFailed.
type PasswordAuthenticator struct {
	Directory *UserDirectory
	Hasher    PasswordHasher
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	u, err := a.Directory.FindByUsername(ctx, username)
	if errors.Is(err, ErrEntityNotFound) {
		// match the timing of the wrong-password path
		_, _ = a.hasher().Hash(password)
		return domain.User{}, ErrAuthenticationFailed
	}
	if err != nil {
		return domain.User{}, err
	}

	switch err := a.hasher().Verify(password, u.PasswordHash); {
	case errors.Is(err, cryptox.ErrPasswordMismatch):
		return domain.User{}, ErrAuthenticationFailed
	case err != nil:
		return domain.User{}, err
	}
	return u, nil
}

func (a *PasswordAuthenticator) hasher() PasswordHasher {
	if a.Hasher != nil {
		return a.Hasher
	}
	return cryptox.Argon2Hasher{}
}
