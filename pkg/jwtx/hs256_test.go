package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCodec(t *testing.T, clock *fakeClock) *jwtx.HS256Codec {
	t.Helper()
	codec, err := jwtx.NewHS256CodecFromKey(testKey, jwtx.WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func TestNewHS256Codec(t *testing.T) {
	t.Run("decodes base64 secret", func(t *testing.T) {
		codec, err := jwtx.NewHS256Codec(base64.StdEncoding.EncodeToString(testKey))
		require.NoError(t, err)
		require.Equal(t, "HS256", codec.Alg())
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := jwtx.NewHS256Codec("not base64!!")
		require.ErrorIs(t, err, jwtx.ErrInvalidSecret)
	})

	t.Run("rejects short keys", func(t *testing.T) {
		_, err := jwtx.NewHS256Codec(base64.StdEncoding.EncodeToString([]byte("short")))
		require.ErrorIs(t, err, jwtx.ErrWeakKey)
	})
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	tests := []struct {
		subject string
		ttl     time.Duration
	}{
		{"alice", time.Minute},
		{"bob@example", 15 * time.Minute},
		{"ünïcödé", time.Hour},
		{"x", 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			token, err := codec.Issue(tt.subject, tt.ttl)
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3)

			sub, err := codec.Verify(token)
			require.NoError(t, err)
			require.Equal(t, tt.subject, sub)

			// Still valid one second before expiry
			later := &fakeClock{t: clock.t.Add(tt.ttl - time.Second)}
			sub, err = newCodec(t, later).Verify(token)
			require.NoError(t, err)
			require.Equal(t, tt.subject, sub)
		})
	}
}

func TestVerifyExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	token, err := codec.Issue("alice", time.Minute)
	require.NoError(t, err)

	t.Run("exactly at exp is expired", func(t *testing.T) {
		at := &fakeClock{t: clock.t.Add(time.Minute)}
		_, err := newCodec(t, at).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("after exp is expired", func(t *testing.T) {
		after := &fakeClock{t: clock.t.Add(time.Hour)}
		_, err := newCodec(t, after).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestVerifyFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	valid, err := codec.Issue("alice", time.Minute)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := codec.Verify("   ")
		require.ErrorIs(t, err, jwtx.ErrEmpty)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Verify("definitely-not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"mallory","exp":4102444800}`))
		_, err := codec.Verify(parts[0] + "." + payload + "." + parts[2])
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("signed with another key", func(t *testing.T) {
		other, err := jwtx.NewHS256CodecFromKey([]byte("ffffffffffffffffffffffffffffffff"), jwtx.WithClock(clock.Now))
		require.NoError(t, err)
		token, err := other.Issue("alice", time.Minute)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("expired with bad signature is malformed", func(t *testing.T) {
		other, err := jwtx.NewHS256CodecFromKey([]byte("ffffffffffffffffffffffffffffffff"), jwtx.WithClock(clock.Now))
		require.NoError(t, err)
		token, err := other.Issue("alice", time.Second)
		require.NoError(t, err)

		after := &fakeClock{t: clock.t.Add(time.Hour)}
		_, err = newCodec(t, after).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
		require.NotErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("alg none is unsupported", func(t *testing.T) {
		claims := jwtx.NewAccessClaims("alice", time.Minute, clock.t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})

	t.Run("RS256 is unsupported", func(t *testing.T) {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		claims := jwtx.NewAccessClaims("alice", time.Minute, clock.t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})

	t.Run("unknown alg is unsupported", func(t *testing.T) {
		header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XX999","typ":"JWT"}`))
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice","exp":4102444800}`))
		_, err := codec.Verify(header + "." + payload + ".c2ln")
		require.ErrorIs(t, err, jwtx.ErrUnsupported)
	})

	t.Run("missing exp is malformed", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
			SignedString(testKey)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("missing sub is malformed", func(t *testing.T) {
		claims := jwtx.NewAccessClaims("", time.Minute, clock.t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestIssueRejectsBadInput(t *testing.T) {
	codec := newCodec(t, &fakeClock{t: time.Now()})

	_, err := codec.Issue("", time.Minute)
	require.Error(t, err)

	_, err = codec.Issue("alice", 0)
	require.Error(t, err)
}

func TestClaimsExpiresIn(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewAccessClaims("alice", time.Minute, now)

	require.Equal(t, time.Minute, c.ExpiresIn(now))
	require.Equal(t, time.Duration(0), c.ExpiresIn(now.Add(2*time.Minute)))
}
