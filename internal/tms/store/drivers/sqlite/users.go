package sqlite

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, password_hash, roles, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		roles                string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roles, &createdAt, &updatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = domain.SplitRoles(roles)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetUserByEmail matches case-insensitively.
func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if len(u.Roles) == 0 {
		u.Roles = []domain.Role{domain.RoleUser}
	}
	created := toMillis(u.CreatedAt)
	u.Email = strings.ToLower(u.Email)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, roles, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		u.Username, u.Email, u.PasswordHash, domain.JoinRoles(u.Roles), created, created,
	).Scan(&u.ID)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}

	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
