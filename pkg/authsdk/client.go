package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the public tms endpoints and opens Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a ROLE_USER account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signin authenticates and returns a Session. identifier may be a username
// or an email address.
func (c *SDKClient) Signin(ctx context.Context, identifier, password string) (*Session, error) {
	var out SigninResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin",
		SigninRequest{Identifier: identifier, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *SDKClient) RefreshToken(ctx context.Context, refreshToken string) (*RefreshTokenResponse, error) {
	var out RefreshTokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh-token",
		RefreshTokenRequest{RefreshToken: refreshToken}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NewSessionFromTokens resumes a session from stored tokens. With
// expiresIn <= 0 the access token is refreshed on first use.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiryFrom(expiresIn),
	}
}
