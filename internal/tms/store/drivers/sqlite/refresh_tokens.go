package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
)

// refreshTokensRepo keys rows by the token fingerprint; the clear value is
// never written.
type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) (domain.RefreshToken, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expiry_date, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`,
		t.UserID, cryptox.FingerprintToken(t.Token), t.ExpiryDate.UnixMilli(), time.Now().UnixMilli(),
	).Scan(&t.ID)
	if err != nil {
		return domain.RefreshToken{}, mapConstraint(err)
	}
	t.ExpiryDate = fromMillis(t.ExpiryDate.UnixMilli())
	return t, nil
}

func (r *refreshTokensRepo) GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error) {
	var (
		t      = domain.RefreshToken{Token: token}
		expiry int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expiry_date FROM refresh_tokens WHERE token_hash = ?`,
		cryptox.FingerprintToken(token),
	).Scan(&t.ID, &t.UserID, &expiry)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ExpiryDate = fromMillis(expiry)
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = ?`, cryptox.FingerprintToken(token))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokensRepo) DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) UserHasRefreshTokens(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE user_id = ?)`, userID,
	).Scan(&exists)
	return exists, err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expiry_date <= ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
