package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

// RotationMode decides what happens to a refresh token once it is used.
type RotationMode string

const (
	// RotationAdditive keeps the used token; every refresh adds a row.
	RotationAdditive RotationMode = "additive"
	// RotationSingleUse deletes the used token before issuing a new one.
	RotationSingleUse RotationMode = "single-use"
)

func ParseRotationMode(s string) (RotationMode, error) {
	switch m := RotationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return RotationAdditive, nil
	case RotationAdditive, RotationSingleUse:
		return m, nil
	default:
		return "", fmt.Errorf("unknown refresh rotation mode %q", s)
	}
}

// SessionService orchestrates login, refresh and logout.
type SessionService struct {
	Directory     *UserDirectory
	Authenticator Authenticator
	Tokens        *RefreshTokenService
	Signer        jwtx.Signer
	AccessTTL     time.Duration
	Rotation      RotationMode
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

// Login authenticates identifier (username or email) and opens a session.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*domain.Session, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	username, err := s.Directory.ResolveUsername(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			log.Info("login failed", "reason", "unknown identifier")
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	user, err := s.Authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Tokens.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	access, err := s.Signer.Issue(user.Username, s.accessTTL())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	log.Info("user signed in", "user_id", user.ID, "username", user.Username)

	return &domain.Session{
		TokenPair: domain.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh.Token,
			ExpiresIn:    s.accessTTL(),
		},
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}, nil
}

// Refresh exchanges a live refresh token for a new access token and a new
// refresh token.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	current, ok, err := s.Tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, refreshNotFound(refreshToken)
	}

	current, err = s.Tokens.CheckLiveness(ctx, current)
	if err != nil {
		return nil, err
	}

	owner, err := s.Directory.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.Signer.Issue(owner.Username, s.accessTTL())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	next, err := s.Tokens.Create(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	// The used token is consumed last so a failure above leaves it usable.
	if s.Rotation == RotationSingleUse {
		if err := s.Tokens.Consume(ctx, current); err != nil {
			if rerr := s.Tokens.Revoke(ctx, next.Token); rerr != nil {
				slogx.FromContext(ctx).Warn("failed to revoke refresh token of lost exchange", "user_id", owner.ID, "err", rerr)
			}
			return nil, err
		}
	}

	slogx.FromContext(ctx).Debug("refresh token exchanged", "user_id", owner.ID, "rotation", string(s.Rotation))

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: next.Token,
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Logout drops every refresh token of the user. Outstanding access tokens
// stop working at the gate because the user no longer has a live session.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	return s.Tokens.DeleteAllForUser(ctx, userID)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
