package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store/drivers/sqlite"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// cheapHasher keeps argon2 fast in tests.
var cheapHasher = cryptox.Argon2Hasher{Params: cryptox.Params{
	Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
}}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     *sqlite.Store
	clock     *fakeClock
	codec     *jwtx.HS256Codec
	directory *UserDirectory
	refresh   *RefreshTokenService
	sessions  *SessionService
	users     *UserService
	ownership *OwnershipService
	tasks     *TaskService
	comments  *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	clock := newFakeClock()
	codec, err := jwtx.NewHS256CodecFromKey([]byte("0123456789abcdef0123456789abcdef"), jwtx.WithClock(clock.Now))
	require.NoError(t, err)

	directory := &UserDirectory{Users: s.Users()}
	refresh := &RefreshTokenService{Tokens: s.RefreshTokens(), TTL: time.Hour, Now: clock.Now}

	return &testEnv{
		store:     s,
		clock:     clock,
		codec:     codec,
		directory: directory,
		refresh:   refresh,
		sessions: &SessionService{
			Directory:     directory,
			Authenticator: &PasswordAuthenticator{Directory: directory, Hasher: cheapHasher},
			Tokens:        refresh,
			Signer:        codec,
			AccessTTL:     15 * time.Minute,
			Rotation:      RotationAdditive,
		},
		users:     &UserService{Store: s, Hasher: cheapHasher},
		ownership: &OwnershipService{Store: s},
		tasks:     &TaskService{Store: s},
		comments:  &CommentService{Store: s},
	}
}

func (e *testEnv) register(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), username, username+"@example.com", "password-"+username)
	require.NoError(t, err)
	return u
}
