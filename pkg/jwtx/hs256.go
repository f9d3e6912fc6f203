package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minHMACKeyLen is the smallest key accepted for HS256 (256 bits).
const minHMACKeyLen = 32

// HS256Codec issues and verifies HMAC-SHA256 signed access tokens using a
// single symmetric key.
type HS256Codec struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption configures an HS256Codec.
type CodecOption func(*HS256Codec)

// WithClock overrides the clock used for both issuance and verification.
func WithClock(now func() time.Time) CodecOption {
	return func(c *HS256Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewHS256Codec builds a codec from a base64 (standard alphabet) encoded secret.
func NewHS256Codec(secret string, opts ...CodecOption) (*HS256Codec, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return NewHS256CodecFromKey(key, opts...)
}

// NewHS256CodecFromKey builds a codec from raw key bytes.
func NewHS256CodecFromKey(key []byte, opts ...CodecOption) (*HS256Codec, error) {
	if len(key) < minHMACKeyLen {
		return nil, ErrWeakKey
	}

	c := &HS256Codec{
		key: append([]byte(nil), key...),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

func (c *HS256Codec) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Issue signs {sub, iat, exp} claims for subject.
func (c *HS256Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("jwtx: subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwtx: ttl must be positive, got %s", ttl)
	}

	claims := NewAccessClaims(subject, ttl, c.now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first, then expiry, and returns the subject.
// The returned error is always one of ErrEmpty, ErrMalformed, ErrExpired or
// ErrUnsupported, possibly wrapping the parser's own error.
func (c *HS256Codec) Verify(tokenStr string) (string, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return "", ErrEmpty
	}

	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return "", classify(token, err)
	}
	if !token.Valid {
		return "", ErrMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims.Subject, nil
}

// classify maps golang-jwt parse failures onto our error kinds.
func classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// A foreign alg is rejected by WithValidMethods as a signature error.
		if token != nil && token.Method != nil && token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
