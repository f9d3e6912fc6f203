package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
)

// TaskService is the minimal task surface the protected routes need.
type TaskService struct {
	Store store.Store
}

func (s *TaskService) Get(ctx context.Context, id int64) (domain.Task, error) {
	t, err := s.Store.Tasks().GetTaskByID(ctx, id)
	return t, notFound(err, "task", "id", id)
}

func (s *TaskService) Create(ctx context.Context, authorID int64, title, description, priority string) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, &ValidationError{Field: "title", Message: "must be filled"}
	}

	p, err := domain.ParseTaskPriority(priority)
	if err != nil {
		return domain.Task{}, &ValidationError{Field: "priority", Message: err.Error()}
	}

	return s.Store.Tasks().CreateTask(ctx, domain.Task{
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.StatusOpen,
		Priority:    p,
		AuthorID:    authorID,
	})
}

func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status string) (domain.Task, error) {
	st, err := domain.ParseTaskStatus(status)
	if err != nil {
		return domain.Task{}, &ValidationError{Field: "status", Message: err.Error()}
	}

	var updated domain.Task
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tasks().UpdateTaskStatus(ctx, id, st); err != nil {
			return notFound(err, "task", "id", id)
		}
		updated, err = tx.Tasks().GetTaskByID(ctx, id)
		return err
	})
	return updated, err
}
