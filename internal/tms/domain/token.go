package domain

import "time"

// TokenPair is what a successful refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Session is the result of a successful login.
type Session struct {
	TokenPair

	UserID   int64
	Username string
	Roles    []Role
}

// RefreshToken models the stored refresh token record. Token holds the
// opaque value handed to the client; drivers may persist only a fingerprint.
type RefreshToken struct {
	ID         int64
	UserID     int64
	Token      string
	ExpiryDate time.Time
}

// ExpiredAt reports whether the token is dead at now (expiry is exclusive).
func (t RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiryDate)
}
