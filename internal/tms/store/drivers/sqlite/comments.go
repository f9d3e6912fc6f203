package sqlite

import (
	"context"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
)

type commentsRepo struct {
	db dbtx
}

func (r *commentsRepo) GetCommentByID(ctx context.Context, id int64) (domain.Comment, error) {
	var (
		c                    domain.Comment
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, task_id, author_id, content, created_at, updated_at FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &createdAt, &updatedAt)
	if err != nil {
		return domain.Comment{}, mapNotFound(err)
	}

	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func (r *commentsRepo) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	created := toMillis(c.CreatedAt)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (task_id, author_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		c.TaskID, c.AuthorID, c.Content, created, created,
	).Scan(&c.ID)
	if err != nil {
		return domain.Comment{}, mapConstraint(err)
	}

	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = c.CreatedAt
	return c, nil
}

func (r *commentsRepo) DeleteComment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
