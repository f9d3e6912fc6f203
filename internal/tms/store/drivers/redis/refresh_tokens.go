// Package redis keeps refresh tokens in Redis for deployments that run more
// than one tms instance against a shared session store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix    = "refresh_tokens"
	defaultRetention = 24 * time.Hour

	// maxWatchRetries bounds optimistic WATCH loops under contention.
	maxWatchRetries = 8

	fieldID     = "id"
	fieldUserID = "user_id"
	fieldExpiry = "expiry_date"
)

// RefreshTokenStore implements store.RefreshTokens.
//
// Layout, with fp the token fingerprint:
//
//	<prefix>:token:<fp>   hash {id, user_id, expiry_date(ms)}
//	<prefix>:user:<id>    set of fp
//	<prefix>:seq          id counter
//
// Token hashes carry a TTL of expiry + retention so an expired token is still
// seen (and reported as expired) for a while before Redis drops it.
type RefreshTokenStore struct {
	rdb       goredis.UniversalClient
	prefix    string
	retention time.Duration
}

type Option func(*RefreshTokenStore)

func WithPrefix(prefix string) Option {
	return func(s *RefreshTokenStore) { s.prefix = prefix }
}

// WithRetention sets how long an expired token lingers before Redis evicts it.
func WithRetention(d time.Duration) Option {
	return func(s *RefreshTokenStore) { s.retention = d }
}

func NewRefreshTokenStore(rdb goredis.UniversalClient, opts ...Option) *RefreshTokenStore {
	s := &RefreshTokenStore{
		rdb:       rdb,
		prefix:    defaultPrefix,
		retention: defaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient parses a redis:// URL and verifies the server answers.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return rdb, nil
}

func (s *RefreshTokenStore) tokenKey(fp string) string { return s.prefix + ":token:" + fp }
func (s *RefreshTokenStore) userKey(userID int64) string {
	return s.prefix + ":user:" + strconv.FormatInt(userID, 10)
}
func (s *RefreshTokenStore) seqKey() string                    { return s.prefix + ":seq" }
func (s *RefreshTokenStore) userPattern() string               { return s.prefix + ":user:*" }
func (s *RefreshTokenStore) ttlFor(expiry time.Time) time.Time { return expiry.Add(s.retention) }

// Ping reports whether Redis is reachable; used by readiness checks.
func (s *RefreshTokenStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RefreshTokenStore) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) (domain.RefreshToken, error) {
	fp := cryptox.FingerprintToken(t.Token)
	key := s.tokenKey(fp)

	id, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("allocate refresh token id: %w", err)
	}
	t.ID = id
	t.ExpiryDate = time.UnixMilli(t.ExpiryDate.UnixMilli()).UTC()

	txf := func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return store.ErrAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldID, t.ID,
				fieldUserID, t.UserID,
				fieldExpiry, t.ExpiryDate.UnixMilli(),
			)
			pipe.PExpireAt(ctx, key, s.ttlFor(t.ExpiryDate))
			pipe.SAdd(ctx, s.userKey(t.UserID), fp)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		return domain.RefreshToken{}, err
	}
	return t, nil
}

func (s *RefreshTokenStore) GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error) {
	fields, err := s.rdb.HGetAll(ctx, s.tokenKey(cryptox.FingerprintToken(token))).Result()
	if err != nil {
		return domain.RefreshToken{}, err
	}
	if len(fields) == 0 {
		return domain.RefreshToken{}, store.ErrNotFound
	}

	t, err := decodeToken(fields)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	t.Token = token
	return t, nil
}

// DeleteRefreshToken runs DEL inside MULTI so only one concurrent caller
// observes the key going away.
func (s *RefreshTokenStore) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	fp := cryptox.FingerprintToken(token)
	key := s.tokenKey(fp)

	rawUserID, err := s.rdb.HGet(ctx, key, fieldUserID).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt refresh token record %s: %w", key, err)
	}

	var del *goredis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		del = pipe.Del(ctx, key)
		pipe.SRem(ctx, s.userKey(userID), fp)
		return nil
	})
	if err != nil {
		return false, err
	}
	return del.Val() > 0, nil
}

// DeleteUserRefreshTokens watches the user set so a token added concurrently
// either makes it into the delete or forces a retry.
func (s *RefreshTokenStore) DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	setKey := s.userKey(userID)
	var removed int64

	txf := func(tx *goredis.Tx) error {
		members, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}

		dels := make([]*goredis.IntCmd, 0, len(members))
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for _, fp := range members {
				dels = append(dels, pipe.Del(ctx, s.tokenKey(fp)))
			}
			pipe.Del(ctx, setKey)
			return nil
		})
		if err != nil {
			return err
		}

		removed = 0
		for _, d := range dels {
			removed += d.Val()
		}
		return nil
	}

	if err := s.watch(ctx, txf, setKey); err != nil {
		return 0, err
	}
	return removed, nil
}

// UserHasRefreshTokens ignores set members whose hash Redis already evicted.
func (s *RefreshTokenStore) UserHasRefreshTokens(ctx context.Context, userID int64) (bool, error) {
	members, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if len(members) == 0 {
		return false, nil
	}

	keys := make([]string, len(members))
	for i, fp := range members {
		keys[i] = s.tokenKey(fp)
	}
	n, err := s.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpiredRefreshTokens walks every user set, removing tokens whose
// expiry is at or before cutoff and pruning members Redis already evicted.
func (s *RefreshTokenStore) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	cutoffMs := cutoff.UnixMilli()

	iter := s.rdb.Scan(ctx, 0, s.userPattern(), 100).Iterator()
	for iter.Next(ctx) {
		setKey := iter.Val()

		members, err := s.rdb.SMembers(ctx, setKey).Result()
		if err != nil {
			return removed, err
		}

		for _, fp := range members {
			key := s.tokenKey(fp)
			raw, err := s.rdb.HGet(ctx, key, fieldExpiry).Result()
			switch {
			case errors.Is(err, goredis.Nil):
				if err := s.rdb.SRem(ctx, setKey, fp).Err(); err != nil {
					return removed, err
				}
				continue
			case err != nil:
				return removed, err
			}

			expiry, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || expiry > cutoffMs {
				continue
			}

			var del *goredis.IntCmd
			if _, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				del = pipe.Del(ctx, key)
				pipe.SRem(ctx, setKey, fp)
				return nil
			}); err != nil {
				return removed, err
			}
			removed += del.Val()
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// watch runs fn under WATCH keys, retrying when another client touched them.
func (s *RefreshTokenStore) watch(ctx context.Context, fn func(*goredis.Tx) error, keys ...string) error {
	for range maxWatchRetries {
		err := s.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("refresh token store: %w after %d attempts", goredis.TxFailedErr, maxWatchRetries)
}

func decodeToken(fields map[string]string) (domain.RefreshToken, error) {
	id, err := strconv.ParseInt(fields[fieldID], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("corrupt refresh token id: %w", err)
	}
	userID, err := strconv.ParseInt(fields[fieldUserID], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("corrupt refresh token user id: %w", err)
	}
	expiry, err := strconv.ParseInt(fields[fieldExpiry], 10, 64)
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("corrupt refresh token expiry: %w", err)
	}

	return domain.RefreshToken{
		ID:         id,
		UserID:     userID,
		ExpiryDate: time.UnixMilli(expiry).UTC(),
	}, nil
}

var _ store.RefreshTokens = (*RefreshTokenStore)(nil)
