package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/internal/tms/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStoreFromDB(db), mock
}

func TestRefreshTokens_DriverFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("lookup error is not mapped to not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id, user_id, expiry_date FROM refresh_tokens`).WillReturnError(boom)

		_, err := s.RefreshTokens().GetRefreshTokenByToken(ctx, "tok")
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, store.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete exec error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).WillReturnError(boom)

		removed, err := s.RefreshTokens().DeleteRefreshToken(ctx, "tok")
		require.ErrorIs(t, err, boom)
		require.False(t, removed)
	})

	t.Run("delete rows affected error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
			WillReturnResult(sqlmock.NewErrorResult(boom))

		removed, err := s.RefreshTokens().DeleteRefreshToken(ctx, "tok")
		require.ErrorIs(t, err, boom)
		require.False(t, removed)
	})

	t.Run("bulk delete reports count", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := s.RefreshTokens().DeleteUserRefreshTokens(ctx, 7)
		require.NoError(t, err)
		require.EqualValues(t, 3, n)
	})

	t.Run("exists query error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(boom)

		_, err := s.RefreshTokens().UserHasRefreshTokens(ctx, 1)
		require.ErrorIs(t, err, boom)
	})

	t.Run("housekeeping error", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expiry_date`).WillReturnError(boom)

		_, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, time.Now())
		require.ErrorIs(t, err, boom)
	})
}

func TestWithTx_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	called := false
	err := s.WithTx(context.Background(), func(store.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("abort")
	err := s.WithTx(context.Background(), func(store.Tx) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}
