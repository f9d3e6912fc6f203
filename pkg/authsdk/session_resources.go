package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

func (s *Session) GetUser(ctx context.Context, id int64) (*UserResponse, error) {
	var out UserResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, fmt.Sprintf("/api/user/%d", id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetTask(ctx context.Context, id int64) (*TaskResponse, error) {
	var out TaskResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, fmt.Sprintf("/api/task/%d", id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var out TaskResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/api/task", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateTaskStatus(ctx context.Context, id int64, status string) (*TaskResponse, error) {
	var out TaskResponse
	path := fmt.Sprintf("/api/task/%d/status", id)
	if err := s.doAuthJSON(ctx, http.MethodPut, path, UpdateTaskStatusRequest{Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentResponse, error) {
	var out CommentResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/api/comment", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteComment(ctx context.Context, id int64) error {
	return s.doAuthJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/comment/%d", id), nil, nil, http.StatusNoContent)
}
