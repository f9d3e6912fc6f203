package security

import (
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
)

// Policy builds the per-route authorization middlewares. The zero value is
// usable and records nothing.
type Policy struct {
	Metrics *metrics.Metrics
}

// RequireAuthenticated rejects requests without a Principal.
func (p Policy) RequireAuthenticated() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFrom(r.Context()); !ok {
				p.Metrics.Denied(metrics.DenyUnauthenticated, "")
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole the caller must hold at least one of roles.
func (p Policy) RequireAnyRole(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				p.Metrics.Denied(metrics.DenyUnauthenticated, "")
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			if !principal.HasAnyRole(roles...) {
				p.Metrics.Denied(metrics.DenyRole, "")
				authsdk.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
