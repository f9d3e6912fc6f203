// Package security authenticates bearer tokens and enforces role and
// ownership rules in front of the HTTP handlers.
package security

import (
	"context"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   int64
	Username string
	Roles    []domain.Role
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...domain.Role) bool {
	return domain.HasAnyRole(p.Roles, roles...)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal published by the Gate, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
