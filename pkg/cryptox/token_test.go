package cryptox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		tok := NewOpaqueToken()

		parsed, err := uuid.Parse(tok)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(4), parsed.Version())

		require.NotContains(t, seen, tok, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}
