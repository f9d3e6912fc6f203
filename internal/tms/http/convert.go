package http

import (
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/domain"
	"github.com/aussiebroadwan/tms/pkg/authsdk"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     domain.RoleStrings(u.Roles),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toTaskResponse(t domain.Task) authsdk.TaskResponse {
	return authsdk.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		AuthorID:    t.AuthorID,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func toCommentResponse(c domain.Comment) authsdk.CommentResponse {
	return authsdk.CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: formatTime(c.CreatedAt),
	}
}
