package tms_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)
	ctx := context.Background()

	health, err := client.GetLiveness(ctx)
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Uptime)
	require.NotEmpty(t, health.Version)

	ready, err := client.GetReadiness(ctx)
	assertHealthy(t, ready, err)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.RefreshStore)
	require.Equal(t, "ok", ready.Checks.Signer)
}

func TestMetricsEndpoint(t *testing.T) {
	baseURL := startService(t)
	client := newClient(baseURL)

	registerAndSignin(t, client, "alice")

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `tms_signin_total{result="success"} 1`)
}

func TestSwaggerServed(t *testing.T) {
	baseURL := startService(t)

	resp, err := http.Get(baseURL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "/api/auth/signin")
}
