package tms_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/app"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for tms end-to-end tests.
 * The service runs in-process behind httptest; Redis runs in a container.
 */

const (
	// 32 bytes of 0x01, base64 encoded.
	jwtSecret = "AQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQE="

	adminUsername = "admin"
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
)

type serviceOptions struct {
	refreshStore string
	redisURL     string
	rotation     string
}

type serviceOption func(*serviceOptions)

func withRedis(url string) serviceOption {
	return func(o *serviceOptions) {
		o.refreshStore = app.RefreshStoreRedis
		o.redisURL = url
	}
}

func withRotation(mode string) serviceOption {
	return func(o *serviceOptions) { o.rotation = mode }
}

// startService boots a fully wired tms and returns its base URL.
func startService(t *testing.T, opts ...serviceOption) string {
	t.Helper()

	o := serviceOptions{refreshStore: app.RefreshStoreSQLite, rotation: "additive"}
	for _, opt := range opts {
		opt(&o)
	}

	dir := t.TempDir()
	cfg := app.Config{
		JWTSecret:            jwtSecret,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      time.Hour,
		RefreshStore:         o.refreshStore,
		RefreshRotation:      o.rotation,
		RedisURL:             o.redisURL,
		RedisPrefix:          fmt.Sprintf("e2e:%d", time.Now().UnixNano()),
		DatabaseFile:         filepath.Join(dir, "tms.db"),
		PepperFile:           filepath.Join(dir, "pepper"),
		AdminUsername:        adminUsername,
		AdminEmail:           adminEmail,
		AdminPassword:        adminPassword,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		Port:                 8080,
		TrustedProxies:       []string{"127.0.0.0/8", "::1"},
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		if err := application.Shutdown(); err != nil {
			t.Logf("shutdown: %v", err)
		}
	})

	return srv.URL
}

var clientSeq atomic.Int32

// forwardedFor stamps every request with a fixed client address so each
// test client gets its own rate limit bucket. The service trusts loopback
// as its proxy, like a deployment behind a local reverse proxy.
type forwardedFor struct {
	ip   string
	base http.RoundTripper
}

func (f forwardedFor) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Forwarded-For", f.ip)
	return f.base.RoundTrip(req)
}

// newClient returns an SDK client with its own source address.
func newClient(baseURL string) *authsdk.SDKClient {
	n := clientSeq.Add(1)
	client := authsdk.NewSDKClient(baseURL)
	client.HTTPClient.Transport = forwardedFor{
		ip:   fmt.Sprintf("10.%d.%d.%d", (n>>16)&0xff, (n>>8)&0xff, n&0xff),
		base: http.DefaultTransport,
	}
	return client
}

// registerAndSignin creates a ROLE_USER account and opens a session for it.
func registerAndSignin(t *testing.T, client *authsdk.SDKClient, username string) *authsdk.Session {
	t.Helper()
	ctx := context.Background()

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	})
	require.NoError(t, err, "register %s", username)

	session, err := client.Signin(ctx, username, "password-"+username)
	require.NoError(t, err, "signin %s", username)
	return session
}

func adminSession(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()
	session, err := client.Signin(context.Background(), adminUsername, adminPassword)
	require.NoError(t, err)
	return session
}

// startRedis runs redis:7-alpine and returns its URL.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

// requireAPIError checks the HTTP status and error code of a failed call.
func requireAPIError(t *testing.T, err error, status int, code string) *authsdk.APIError {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// rawRequest sends a bodyless request with an explicit bearer token,
// bypassing the SDK's refresh logic.
func rawRequest(t *testing.T, baseURL, method, path, token string) (int, authsdk.ErrorResponse) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Forwarded-For", "192.0.2.1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body authsdk.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}
