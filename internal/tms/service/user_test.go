package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, "alice", " Alice@Example.com ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, []domain.Role{domain.RoleUser}, u.Roles)
	require.NotEqual(t, "correct horse", u.PasswordHash)
	require.NoError(t, cheapHasher.Verify("correct horse", u.PasswordHash))

	got, err := env.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = env.users.GetUserByID(ctx, 999)
	require.ErrorIs(t, err, ErrEntityNotFound)

	_, err = env.users.Register(ctx, "alice", "other@example.com", "correct horse")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUserService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name, username, email, password, field string
	}{
		{"short username", "al", "al@example.com", "password1", "username"},
		{"username with at", "al@ice", "alice@example.com", "password1", "username"},
		{"bad email", "alice", "not-an-email", "password1", "email"},
		{"display-name email", "alice", "Alice <alice@example.com>", "password1", "email"},
		{"short password", "alice", "alice@example.com", "short", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.username, tt.email, tt.password)
			require.ErrorIs(t, err, ErrInvalidRequest)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.EnsureAdmin(ctx, "root", "root@example.com", "super-secret")
	require.NoError(t, err)
	require.True(t, created)

	created, err = env.users.EnsureAdmin(ctx, "root", "root@example.com", "super-secret")
	require.NoError(t, err)
	require.False(t, created)

	u, err := env.directory.FindByUsername(ctx, "root")
	require.NoError(t, err)
	require.True(t, u.HasAnyRole(domain.RoleAdmin))
}
