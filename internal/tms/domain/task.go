package domain

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusOpen       TaskStatus = "OPEN"
	StatusToDo       TaskStatus = "TO_DO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusReopened   TaskStatus = "REOPENED"
	StatusClosed     TaskStatus = "CLOSED"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusOpen, StatusToDo, StatusInProgress, StatusDone, StatusReopened, StatusClosed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func ParseTaskPriority(s string) (TaskPriority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityMedium, nil
	}
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown task priority %q", s)
	}
}

type Task struct {
	ID          int64
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
