package service

import (
	"errors"
	"fmt"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token was expired, repeat signin action")
	ErrAccessDenied         = errors.New("this is not accessible to the current user")
	ErrEntityNotFound       = errors.New("entity not found")
	ErrAuthenticationFailed = errors.New("bad credentials")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidRequest       = errors.New("invalid request")

	// ErrInvalidEntityType means a route was wired with an entity the
	// ownership resolver does not know. It is a programming error.
	ErrInvalidEntityType = errors.New("invalid entity type")
)

// RefreshTokenError carries the offending token alongside the reason
// (ErrRefreshTokenNotFound or ErrRefreshTokenExpired).
type RefreshTokenError struct {
	Token  string
	Reason error
}

func (e *RefreshTokenError) Error() string {
	return fmt.Sprintf("error trying to refresh token %s: %v", e.Token, e.Reason)
}

func (e *RefreshTokenError) Unwrap() error { return e.Reason }

func refreshNotFound(token string) error {
	return &RefreshTokenError{Token: token, Reason: ErrRefreshTokenNotFound}
}

func refreshExpired(token string) error {
	return &RefreshTokenError{Token: token, Reason: ErrRefreshTokenExpired}
}

// NotFoundError describes which record was missing, e.g.
// "refresh token with user id 4 not found". It unwraps to ErrEntityNotFound.
type NotFoundError struct {
	Entity string
	Field  string
	Value  any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %v not found", e.Entity, e.Field, e.Value)
}

func (e *NotFoundError) Unwrap() error { return ErrEntityNotFound }

// ValidationError is a client mistake in request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }
