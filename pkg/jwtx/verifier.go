package jwtx

import "errors"

// Verifier validates a token and gives you back its subject if it's legit.
type Verifier interface {
	Verify(token string) (string, error)
}

// Verification failures. Callers classify them with errors.Is.
var (
	ErrEmpty       = errors.New("jwtx: empty token")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrUnsupported = errors.New("jwtx: unsupported token")
)

// Key configuration failures.
var (
	ErrInvalidSecret = errors.New("jwtx: secret is not valid base64")
	ErrWeakKey       = errors.New("jwtx: hmac key must be at least 256 bits")
)
