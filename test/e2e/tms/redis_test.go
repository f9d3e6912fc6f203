package tms_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRedisRefreshStore_SessionLifecycle(t *testing.T) {
	redisURL := startRedis(t)
	baseURL := startService(t, withRedis(redisURL))
	client := newClient(baseURL)
	ctx := context.Background()

	ready, err := client.GetReadiness(ctx)
	assertHealthy(t, ready, err)
	require.Equal(t, "ok", ready.Checks.RefreshStore)

	session := registerAndSignin(t, client, "alice")

	pair, err := client.RefreshToken(ctx, session.RefreshToken())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	task, err := session.CreateTask(ctx, authsdk.CreateTaskRequest{Title: "on redis"})
	require.NoError(t, err)

	access := session.AccessToken()
	require.NoError(t, session.Logout(ctx))

	status, body := rawRequest(t, baseURL, http.MethodGet, "/api/task/"+itoa(task.ID), access)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, authsdk.ErrorCodeSessionNotFound, body.Error)

	_, err = client.RefreshToken(ctx, pair.RefreshToken)
	requireAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeRefreshTokenInvalid)
}
