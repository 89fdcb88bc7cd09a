package entity

import (
	"context"
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Toggled flips a task between completed and pending, the checkbox behaviour
// of the task list.
func (s TaskStatus) Toggled() TaskStatus {
	if s == TaskCompleted {
		return TaskPending
	}
	return TaskCompleted
}

type Task struct {
	ID          string     `json:"id"`
	LeadID      string     `json:"lead_id"`
	LeadTitle   string     `json:"lead_title,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      TaskStatus `json:"status"`
	AssignedTo  *string    `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	UpdateStatus(ctx context.Context, id string, status TaskStatus) error
	Delete(ctx context.Context, id string) error
	ListByLead(ctx context.Context, leadID string) ([]Task, error)
	// ListForUser returns tasks assigned to userID or to nobody, soonest due first.
	ListForUser(ctx context.Context, userID string) ([]Task, error)
}
