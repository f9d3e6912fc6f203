package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshSkew refreshes the access token this long before it expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time

	UserID   int64
	Username string
	Roles    []string
}

func newSession(client *SDKClient, resp *SigninResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    expiryFrom(resp.ExpiresIn),
		UserID:       resp.ID,
		Username:     resp.Username,
		Roles:        resp.Roles,
	}
}

func expiryFrom(expiresIn int) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(expiresIn)*time.Second - refreshSkew)
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// getValidToken returns a valid access token, refreshing it if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	return s.refresh(ctx, "")
}

// refresh swaps in a new token pair. When stale is set and another goroutine
// already replaced it, the current token is returned instead.
func (s *Session) refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stale != "" && s.accessToken != stale {
		return s.accessToken, nil
	}
	if stale == "" && time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", errors.New("access token expired and no refresh token available")
	}

	resp, err := s.client.RefreshToken(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.expiresAt = expiryFrom(resp.ExpiresIn)
	return s.accessToken, nil
}

// doAuthJSON performs an authenticated request. A 401 triggers one refresh
// and retry when a refresh token is held.
func (s *Session) doAuthJSON(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	resp, err := s.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && s.RefreshToken() != "" {
		_ = resp.Body.Close()
		if token, err = s.refresh(ctx, token); err != nil {
			return err
		}
		if resp, err = s.send(ctx, method, path, body, token); err != nil {
			return err
		}
	}

	return decodeJSON(resp, target, expectedStatus)
}

func (s *Session) send(ctx context.Context, method, path string, body any, token string) (*http.Response, error) {
	req, err := s.client.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// Logout ends every session of the user on the server.
func (s *Session) Logout(ctx context.Context) error {
	err := s.doAuthJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, http.StatusOK)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken, s.refreshToken, s.expiresAt = "", "", time.Time{}
	s.mu.Unlock()
	return nil
}
