package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
)

type CommentService struct {
	Store store.Store
}

// Create adds a comment to an existing task.
func (s *CommentService) Create(ctx context.Context, authorID, taskID int64, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Comment{}, &ValidationError{Field: "content", Message: "must be filled"}
	}

	var created domain.Comment
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Tasks().GetTaskByID(ctx, taskID); err != nil {
			return notFound(err, "task", "id", taskID)
		}
		var err error
		created, err = tx.Comments().CreateComment(ctx, domain.Comment{
			TaskID:   taskID,
			AuthorID: authorID,
			Content:  content,
		})
		return err
	})
	return created, err
}

func (s *CommentService) Delete(ctx context.Context, id int64) error {
	return notFound(s.Store.Comments().DeleteComment(ctx, id), "comment", "id", id)
}
