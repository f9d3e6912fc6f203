package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a RoleTag. Stored space-delimited on the user row.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// ParseRole accepts "ROLE_ADMIN" as well as the short form "admin".
func ParseRole(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "ROLE_") {
		s = "ROLE_" + s
	}
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// HasAnyRole reports whether have and want intersect.
func HasAnyRole(have []Role, want ...Role) bool {
	for _, r := range want {
		if slices.Contains(have, r) {
			return true
		}
	}
	return false
}

// JoinRoles renders roles for storage.
func JoinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

// SplitRoles parses stored roles, dropping duplicates and unknown values.
func SplitRoles(s string) []Role {
	var out []Role
	for _, f := range strings.Fields(s) {
		r, err := ParseRole(f)
		if err != nil || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RoleStrings is the wire form of roles.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
