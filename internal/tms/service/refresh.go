package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

// DefaultExpiredRetention matches the Redis driver's default key retention.
const DefaultExpiredRetention = 24 * time.Hour

// RefreshTokenService owns the refresh token lifecycle on top of whichever
// store.RefreshTokens driver is configured.
type RefreshTokenService struct {
	Tokens store.RefreshTokens
	TTL    time.Duration

	// Retention is how long an expired token is kept so that refresh keeps
	// reporting it as expired rather than unknown. Zero means
	// DefaultExpiredRetention.
	Retention time.Duration

	// Now and NewToken default to time.Now and cryptox.NewOpaqueToken.
	Now      func() time.Time
	NewToken func() string
}

func (s *RefreshTokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RefreshTokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Create issues and persists a new refresh token for userID. Existing tokens
// of the user are left alone; one user may hold many.
func (s *RefreshTokenService) Create(ctx context.Context, userID int64) (domain.RefreshToken, error) {
	newToken := s.NewToken
	if newToken == nil {
		newToken = cryptox.NewOpaqueToken
	}

	t, err := s.Tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		UserID:     userID,
		Token:      newToken(),
		ExpiryDate: s.now().Add(s.ttl()),
	})
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("create refresh token: %w", err)
	}
	return t, nil
}

// FindByToken reports ok=false when the token is unknown.
func (s *RefreshTokenService) FindByToken(ctx context.Context, token string) (domain.RefreshToken, bool, error) {
	t, err := s.Tokens.GetRefreshTokenByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RefreshToken{}, false, nil
	}
	if err != nil {
		return domain.RefreshToken{}, false, err
	}
	return t, true, nil
}

// CheckLiveness returns t unchanged while now < expiry. Otherwise the row is
// deleted and the caller gets ErrRefreshTokenExpired, or
// ErrRefreshTokenNotFound if someone else deleted it first.
func (s *RefreshTokenService) CheckLiveness(ctx context.Context, t domain.RefreshToken) (domain.RefreshToken, error) {
	if !t.ExpiredAt(s.now()) {
		return t, nil
	}

	removed, err := s.Tokens.DeleteRefreshToken(ctx, t.Token)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("delete expired refresh token: %w", err)
	}
	if !removed {
		return domain.RefreshToken{}, refreshNotFound(t.Token)
	}

	slogx.FromContext(ctx).Debug("expired refresh token removed", "user_id", t.UserID, "token_id", t.ID)
	return domain.RefreshToken{}, refreshExpired(t.Token)
}

// Consume deletes t for single-use rotation. Losing a concurrent race
// yields ErrRefreshTokenNotFound.
func (s *RefreshTokenService) Consume(ctx context.Context, t domain.RefreshToken) error {
	removed, err := s.Tokens.DeleteRefreshToken(ctx, t.Token)
	if err != nil {
		return fmt.Errorf("consume refresh token: %w", err)
	}
	if !removed {
		return refreshNotFound(t.Token)
	}
	return nil
}

// Revoke deletes a single token. Unknown tokens are not an error.
func (s *RefreshTokenService) Revoke(ctx context.Context, token string) error {
	if _, err := s.Tokens.DeleteRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// DeleteAllForUser is idempotent.
func (s *RefreshTokenService) DeleteAllForUser(ctx context.Context, userID int64) error {
	n, err := s.Tokens.DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens of user %d: %w", userID, err)
	}
	slogx.FromContext(ctx).Debug("refresh tokens removed", "user_id", userID, "count", n)
	return nil
}

func (s *RefreshTokenService) ExistsForUser(ctx context.Context, userID int64) (bool, error) {
	return s.Tokens.UserHasRefreshTokens(ctx, userID)
}

// DeleteExpired is run by housekeeping. Only tokens that expired more than
// Retention ago are removed.
func (s *RefreshTokenService) DeleteExpired(ctx context.Context) (int64, error) {
	retention := s.Retention
	if retention <= 0 {
		retention = DefaultExpiredRetention
	}
	return s.Tokens.DeleteExpiredRefreshTokens(ctx, s.now().Add(-retention))
}
