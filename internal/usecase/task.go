package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type TaskUseCase struct {
	Tasks  entity.TaskRepositoryInterface
	Leads  entity.LeadRepositoryInterface
	Access *AccessPolicy
}

func NewTaskUseCase(tasks entity.TaskRepositoryInterface, leads entity.LeadRepositoryInterface, access *AccessPolicy) *TaskUseCase {
	return &TaskUseCase{Tasks: tasks, Leads: leads, Access: access}
}

// TaskInput carries due_date as "2006-01-02" or RFC 3339.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to"`
}

func (in TaskInput) parse() (due *time.Time, status entity.TaskStatus, errs []ValidationError) {
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if d := strings.TrimSpace(in.DueDate); d != "" {
		t, err := parseDueDate(d)
		if err != nil {
			errs = append(errs, ValidationError{Field: "due_date", Message: "invalid date"})
		} else {
			due = &t
		}
	}
	status = entity.TaskPending
	if in.Status != "" {
		s, err := entity.ParseTaskStatus(in.Status)
		if err != nil {
			errs = append(errs, ValidationError{Field: "status", Message: err.Error()})
		}
		status = s
	}
	return due, status, errs
}

func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (uc *TaskUseCase) CreateTask(ctx context.Context, actor Actor, leadID string, in TaskInput) (*entity.Task, error) {
	due, status, errs := in.parse()
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	if _, err := uc.lead(ctx, actor, leadID); err != nil {
		return nil, err
	}

	task := &entity.Task{
		LeadID:      leadID,
		Title:       strings.TrimSpace(in.Title),
		Description: entity.NullIfEmpty(in.Description),
		DueDate:     due,
		Status:      status,
		AssignedTo:  selectValue(in.AssignedTo),
	}
	if err := uc.Tasks.Create(ctx, task); err != nil {
		return nil, storeError(err, "task")
	}
	return task, nil
}

func (uc *TaskUseCase) UpdateTask(ctx context.Context, actor Actor, taskID string, in TaskInput) (*entity.Task, error) {
	due, status, errs := in.parse()
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	task, err := uc.task(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(in.Title)
	task.Description = entity.NullIfEmpty(in.Description)
	task.DueDate = due
	if in.Status != "" {
		task.Status = status
	}
	task.AssignedTo = selectValue(in.AssignedTo)
	if err := uc.Tasks.Update(ctx, task); err != nil {
		return nil, storeError(err, "task")
	}
	return task, nil
}

// ToggleTask flips a task between completed and pending.
func (uc *TaskUseCase) ToggleTask(ctx context.Context, actor Actor, taskID string) (*entity.Task, error) {
	task, err := uc.task(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	next := task.Status.Toggled()
	if err := uc.Tasks.UpdateStatus(ctx, task.ID, next); err != nil {
		return nil, storeError(err, "task")
	}
	task.Status = next
	return task, nil
}

func (uc *TaskUseCase) DeleteTask(ctx context.Context, actor Actor, taskID string) error {
	task, err := uc.task(ctx, actor, taskID)
	if err != nil {
		return err
	}
	return storeError(uc.Tasks.Delete(ctx, task.ID), "task")
}

// ListMyTasks returns tasks assigned to the actor or to nobody, soonest due
// first.
func (uc *TaskUseCase) ListMyTasks(ctx context.Context, actor Actor) ([]entity.Task, error) {
	tasks, err := uc.Tasks.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "tasks")
	}
	return tasks, nil
}

func (uc *TaskUseCase) ListLeadTasks(ctx context.Context, actor Actor, leadID string) ([]entity.Task, error) {
	if _, err := uc.lead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	tasks, err := uc.Tasks.ListByLead(ctx, leadID)
	if err != nil {
		return nil, storeError(err, "tasks")
	}
	return tasks, nil
}

func (uc *TaskUseCase) lead(ctx context.Context, actor Actor, leadID string) (*entity.Lead, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, storeError(err, "lead")
	}
	if err := uc.Access.RequirePipeline(ctx, actor, lead.PipelineID); err != nil {
		return nil, err
	}
	return lead, nil
}

func (uc *TaskUseCase) task(ctx context.Context, actor Actor, taskID string) (*entity.Task, error) {
	task, err := uc.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, storeError(err, "task")
	}
	if _, err := uc.lead(ctx, actor, task.LeadID); err != nil {
		return nil, err
	}
	return task, nil
}
