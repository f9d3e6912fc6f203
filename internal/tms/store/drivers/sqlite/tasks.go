package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
)

type tasksRepo struct {
	db dbtx
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id int64) (domain.Task, error) {
	var (
		t                    domain.Task
		status, priority     string
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, priority, author_id, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.AuthorID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	if t.Status == "" {
		t.Status = domain.StatusOpen
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	created := toMillis(t.CreatedAt)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, status, priority, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.AuthorID, created, created,
	).Scan(&t.ID)
	if err != nil {
		return domain.Task{}, mapConstraint(err)
	}

	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = t.CreatedAt
	return t, nil
}

func (r *tasksRepo) UpdateTaskStatus(ctx context.Context, id int64, status domain.TaskStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
