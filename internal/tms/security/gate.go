package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

// DefaultPublicPaths never go through token processing.
var DefaultPublicPaths = []string{
	"/swagger/",
	"/livez",
	"/readyz",
	"/metrics",
	"/api/auth/signin",
	"/api/auth/register",
	"/api/auth/refresh-token",
}

// PrincipalSource loads the user named by a token subject.
type PrincipalSource interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// SessionChecker reports whether a user still holds a refresh token.
type SessionChecker interface {
	ExistsForUser(ctx context.Context, userID int64) (bool, error)
}

// Gate resolves the bearer token of every request into a Principal.
//
// A request whose token is missing, invalid or names an unknown user
// continues unauthenticated and is left to the per-route policies. A valid
// token whose user has no live refresh token (i.e. after logout) is rejected
// outright.
type Gate struct {
	Verifier jwtx.Verifier
	Users    PrincipalSource
	Sessions SessionChecker

	// Public defaults to DefaultPublicPaths when nil.
	Public  []string
	Metrics *metrics.Metrics
}

func (g *Gate) Middleware() httpx.Middleware {
	public := g.Public
	if public == nil {
		public = DefaultPublicPaths
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpx.HasPathPrefix(r.URL.Path, public...) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := httpx.BearerToken(r)
			if !ok {
				g.Metrics.Authn(metrics.AuthnAnonymous)
				next.ServeHTTP(w, r)
				return
			}

			username, err := g.Verifier.Verify(raw)
			if err != nil {
				log.Debug("bearer token rejected", "err", err)
				g.Metrics.Authn(metrics.AuthnInvalidToken)
				next.ServeHTTP(w, r)
				return
			}

			user, err := g.Users.FindByUsername(ctx, username)
			if err != nil {
				log.Warn("token subject not resolvable", "username", username, "err", err)
				g.Metrics.Authn(metrics.AuthnUnknownUser)
				next.ServeHTTP(w, r)
				return
			}

			live, err := g.Sessions.ExistsForUser(ctx, user.ID)
			switch {
			case err != nil:
				log.Error("session lookup failed", "user_id", user.ID, "err", err)
				g.Metrics.Authn(metrics.AuthnSessionLookupError)
				next.ServeHTTP(w, r)
				return
			case !live:
				g.Metrics.Authn(metrics.AuthnNoSession)
				authsdk.ErrSessionNotFound.
					WithDescription(fmt.Sprintf("refresh token with user id %d not found", user.ID)).
					WriteError(w)
				return
			}

			g.Metrics.Authn(metrics.AuthnAuthenticated)
			ctx = WithPrincipal(ctx, Principal{
				UserID:   user.ID,
				Username: user.Username,
				Roles:    user.Roles,
			})
			ctx = slogx.With(ctx, "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
