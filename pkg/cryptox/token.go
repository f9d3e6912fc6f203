package cryptox

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/google/uuid"
)

// NewOpaqueToken returns a random version 4 UUID string (122 random bits).
// It is what refresh tokens are handed out as.
func NewOpaqueToken() string {
	return uuid.NewString()
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Stores keep the fingerprint so a leaked table does not leak usable tokens.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
