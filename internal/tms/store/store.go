package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite) implement
// this. It exposes sub-repositories so a transaction can only be opened from
// the root, never from inside another transaction.
type Store interface {
	Users() Users
	Tasks() Tasks
	Comments() Comments
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A nil return commits,
	// anything else rolls back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user and returns it with the assigned id.
	// Duplicate username or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Tasks interface {
	GetTaskByID(ctx context.Context, id int64) (domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, status domain.TaskStatus) error
}

type Comments interface {
	GetCommentByID(ctx context.Context, id int64) (domain.Comment, error)
	CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// RefreshTokens is implemented by the sqlite and redis drivers. Lookups are
// by the opaque token value; drivers decide how it is keyed at rest.
type RefreshTokens interface {
	// CreateRefreshToken stores a new record and returns it with its id set.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) (domain.RefreshToken, error)

	// GetRefreshTokenByToken returns ErrNotFound when no row matches.
	GetRefreshTokenByToken(ctx context.Context, token string) (domain.RefreshToken, error)

	// DeleteRefreshToken reports whether this call removed the row. Of two
	// concurrent deletes exactly one sees true.
	DeleteRefreshToken(ctx context.Context, token string) (bool, error)

	// DeleteUserRefreshTokens removes every row of the user at once and
	// returns how many went.
	DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error)

	UserHasRefreshTokens(ctx context.Context, userID int64) (bool, error)

	// DeleteExpiredRefreshTokens removes tokens whose expiry is at or before
	// cutoff. It is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}
