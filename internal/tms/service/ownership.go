package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/internal/tms/store"
)

// OwnershipService maps (entity, id) to the id of the owning user.
type OwnershipService struct {
	Store store.Store

	lookups atomic.Int64
}

// OwnerOf resolves the owner. USER resources own themselves; tasks and
// comments are owned by their author.
func (s *OwnershipService) OwnerOf(ctx context.Context, entity domain.EntityType, id int64) (int64, error) {
	s.lookups.Add(1)

	switch entity {
	case domain.EntityUser:
		return id, nil
	case domain.EntityTask:
		t, err := s.Store.Tasks().GetTaskByID(ctx, id)
		if err != nil {
			return 0, notFound(err, "task", "id", id)
		}
		return t.AuthorID, nil
	case domain.EntityComment:
		c, err := s.Store.Comments().GetCommentByID(ctx, id)
		if err != nil {
			return 0, notFound(err, "comment", "id", id)
		}
		return c.AuthorID, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEntityType, entity)
	}
}

// Lookups reports how many resolutions have been attempted.
func (s *OwnershipService) Lookups() int64 {
	return s.lookups.Load()
}
