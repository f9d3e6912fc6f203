package tms_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitSignin verifies that /api/auth/signin is rate limited.
// The strict limit is 5 req/min per address and identifier.
func TestRateLimitSignin(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)
	ctx := context.Background()

	for range 5 {
		_, err := client.Signin(ctx, "mallory", "guess")
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
	}

	_, err := client.Signin(ctx, "mallory", "guess")
	requireAPIError(t, err, http.StatusTooManyRequests, authsdk.ErrorCodeRateLimitExceeded)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "too many requests, please try again later", apiErr.Description)

	// a different client address is unaffected
	_, err = newClient(baseURL).Signin(ctx, "mallory", "guess")
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
}
