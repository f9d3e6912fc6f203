package security_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]string

func (v fakeVerifier) Verify(token string) (string, error) {
	if sub, ok := v[token]; ok {
		return sub, nil
	}
	return "", jwtx.ErrMalformed
}

type fakeUsers map[string]domain.User

func (u fakeUsers) FindByUsername(_ context.Context, username string) (domain.User, error) {
	if user, ok := u[username]; ok {
		return user, nil
	}
	return domain.User{}, store.ErrNotFound
}

type fakeSessions struct {
	live map[int64]bool
	err  error
}

func (s fakeSessions) ExistsForUser(_ context.Context, id int64) (bool, error) {
	return s.live[id], s.err
}

var (
	alice = domain.User{ID: 1, Username: "alice", Roles: []domain.Role{domain.RoleUser}}
	admin = domain.User{ID: 2, Username: "root", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}
	gone  = domain.User{ID: 3, Username: "gone", Roles: []domain.Role{domain.RoleUser}}
)

func newGate(m *metrics.Metrics, sessionErr error) *security.Gate {
	return &security.Gate{
		Verifier: fakeVerifier{"t-alice": "alice", "t-admin": "root", "t-gone": "gone", "t-ghost": "ghost"},
		Users:    fakeUsers{"alice": alice, "root": admin, "gone": gone},
		Sessions: fakeSessions{live: map[int64]bool{1: true, 2: true}, err: sessionErr},
		Metrics:  m,
	}
}

// capture records the principal seen by the handler.
func capture(seen *security.Principal, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, *found = security.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func request(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) authsdk.ErrorResponse {
	t.Helper()
	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGate(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantUser   int64
		wantAuthn  bool
	}{
		{"no header", "/api/task/1", "", http.StatusOK, 0, false},
		{"invalid token", "/api/task/1", "garbage", http.StatusOK, 0, false},
		{"unknown subject", "/api/task/1", "t-ghost", http.StatusOK, 0, false},
		{"valid", "/api/task/1", "t-alice", http.StatusOK, 1, true},
		{"no live session", "/api/task/1", "t-gone", http.StatusUnauthorized, 0, false},
		{"public path skips lookup", "/api/auth/signin", "t-gone", http.StatusOK, 0, false},
		{"swagger subtree is public", "/swagger/index.html", "t-alice", http.StatusOK, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen security.Principal
			var found bool
			h := newGate(nil, nil).Middleware()(capture(&seen, &found))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request(http.MethodGet, tt.path, tt.token))

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantAuthn, found)
			if tt.wantAuthn {
				require.Equal(t, tt.wantUser, seen.UserID)
			}
		})
	}
}

func TestGate_NoSessionBody(t *testing.T) {
	h := newGate(nil, nil).Middleware()(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/user/3", "t-gone"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, authsdk.ErrorCodeSessionNotFound, body.Error)
	require.Equal(t, "refresh token with user id 3 not found", body.ErrorDescription)
}

func TestGate_SessionStoreErrorDegrades(t *testing.T) {
	m := metrics.New()
	var seen security.Principal
	var found bool
	h := newGate(m, errors.New("redis down")).Middleware()(capture(&seen, &found))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(http.MethodGet, "/api/task/1", "t-alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, found)
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthnTotal.WithLabelValues(metrics.AuthnSessionLookupError)))
}

func TestPolicy_Roles(t *testing.T) {
	policy := security.Policy{}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	adminOnly := httpx.Chain(ok,
		newGate(nil, nil).Middleware(),
		policy.RequireAuthenticated(),
		policy.RequireAnyRole(domain.RoleAdmin),
	)

	tests := []struct {
		name  string
		token string
		want  int
		code  string
	}{
		{"anonymous", "", http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized},
		{"bad token", "garbage", http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized},
		{"missing role", "t-alice", http.StatusForbidden, authsdk.ErrorCodeForbidden},
		{"admin", "t-admin", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			adminOnly.ServeHTTP(rec, request(http.MethodGet, "/api/admin", tt.token))
			require.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				require.Equal(t, tt.code, decodeError(t, rec).Error)
			}
		})
	}
}

type fakeOwners map[int64]int64

func (o fakeOwners) OwnerOf(_ context.Context, entity domain.EntityType, id int64) (int64, error) {
	if entity != domain.EntityTask {
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidEntityType, entity)
	}
	owner, ok := o[id]
	if !ok {
		return 0, &service.NotFoundError{Entity: "task", Field: "id", Value: id}
	}
	return owner, nil
}

func TestPolicy_Ownership(t *testing.T) {
	m := metrics.New()
	policy := security.Policy{Metrics: m}
	owners := fakeOwners{10: alice.ID, 11: admin.ID}

	build := func(entity domain.EntityType) http.Handler {
		mux := http.NewServeMux()
		mux.Handle("GET /api/task/{id}", httpx.Chain(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
			policy.RequireAuthenticated(),
			policy.RequireAnyRole(domain.RoleUser, domain.RoleAdmin),
			policy.RequireOwnership(entity, owners, domain.RoleAdmin),
		))
		return newGate(nil, nil).Middleware()(mux)
	}
	tasks := build(domain.EntityTask)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
		code  string
	}{
		{"owner", "/api/task/10", "t-alice", http.StatusOK, ""},
		{"not owner", "/api/task/11", "t-alice", http.StatusForbidden, authsdk.ErrorCodeAccessDenied},
		{"admin bypass", "/api/task/10", "t-admin", http.StatusOK, ""},
		{"admin bypass on missing", "/api/task/99", "t-admin", http.StatusOK, ""},
		{"missing", "/api/task/99", "t-alice", http.StatusNotFound, authsdk.ErrorCodeEntityNotFound},
		{"bad id", "/api/task/abc", "t-alice", http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"anonymous", "/api/task/10", "", http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tasks.ServeHTTP(rec, request(http.MethodGet, tt.path, tt.token))
			require.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				require.Equal(t, tt.code, decodeError(t, rec).Error)
			}
		})
	}

	t.Run("denial does not leak entity detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tasks.ServeHTTP(rec, request(http.MethodGet, "/api/task/11", "t-alice"))
		require.Equal(t, "this is not accessible to the current user", decodeError(t, rec).ErrorDescription)
	})

	t.Run("unknown entity type is a server error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		build(domain.EntityType("PROJECT")).ServeHTTP(rec, request(http.MethodGet, "/api/task/10", "t-alice"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	require.GreaterOrEqual(t, testutil.ToFloat64(m.AuthzDenialsTotal.WithLabelValues(metrics.DenyOwnership, "TASK")), 2.0)
}
