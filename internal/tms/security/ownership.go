package security

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
)

// OwnerResolver maps an entity to the id of the user that owns it.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, entity domain.EntityType, id int64) (int64, error)
}

// RequireOwnership lets the request through when the principal owns the
// entity named by the "{id}" path value, or holds one of the bypass roles.
// It must run after RequireAuthenticated.
func (p Policy) RequireOwnership(entity domain.EntityType, resolver OwnerResolver, bypass ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			principal, ok := PrincipalFrom(ctx)
			if !ok {
				p.Metrics.Denied(metrics.DenyUnauthenticated, string(entity))
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			if len(bypass) > 0 && principal.HasAnyRole(bypass...) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := httpx.PathInt64(r, "id")
			if err != nil {
				authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
				return
			}

			owner, err := resolver.OwnerOf(ctx, entity, id)
			switch {
			case errors.Is(err, service.ErrInvalidEntityType):
				log.Error("ownership check misconfigured", "entity", entity, "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			case errors.Is(err, service.ErrEntityNotFound):
				authsdk.ErrEntityNotFound.WithDescription(err.Error()).WriteError(w)
				return
			case err != nil:
				log.Error("ownership lookup failed", "entity", entity, "id", id, "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			if owner != principal.UserID {
				log.Info("ownership check denied", "entity", entity, "id", id)
				p.Metrics.Denied(metrics.DenyOwnership, string(entity))
				authsdk.ErrAccessDenied.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
