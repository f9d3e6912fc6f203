package jwtx

import "time"

// Signer is our interface for anything that can mint access tokens.
type Signer interface {
	Alg() string
	Issue(subject string, ttl time.Duration) (string, error)
}
