package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

func newTasks() (*TaskUseCase, *MockTaskRepository, *MockLeadRepository, *MockMemberRepository) {
	tasks := new(MockTaskRepository)
	leads := new(MockLeadRepository)
	members := new(MockMemberRepository)
	uc := NewTaskUseCase(tasks, leads, NewAccessPolicy(new(MockProfileRepository), members))
	return uc, tasks, leads, members
}

func TestCreateTask(t *testing.T) {
	uc, tasks, leads, _ := newTasks()
	leads.On("FindByID", mock.Anything, "l1").Return(&entity.Lead{ID: "l1", PipelineID: "p1"}, nil)
	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *entity.Task) bool {
		return task.Status == entity.TaskPending && task.AssignedTo == nil &&
			task.DueDate != nil && task.DueDate.Equal(time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	task, err := uc.CreateTask(context.Background(), adminActor, "l1", TaskInput{Title: "Ligar", DueDate: "2026-11-03", AssignedTo: noneOption})
	require.NoError(t, err)
	assert.Equal(t, "Ligar", task.Title)
	tasks.AssertExpectations(t)
}

func TestCreateTaskValidation(t *testing.T) {
	uc, _, _, _ := newTasks()
	_, err := uc.CreateTask(context.Background(), adminActor, "l1", TaskInput{DueDate: "tomorrow", Status: "done"})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "title")
	assert.Contains(t, de.Fields, "due_date")
	assert.Contains(t, de.Fields, "status")
}

func TestToggleTask(t *testing.T) {
	uc, tasks, leads, _ := newTasks()
	leads.On("FindByID", mock.Anything, "l1").Return(&entity.Lead{ID: "l1", PipelineID: "p1"}, nil)
	tasks.On("FindByID", mock.Anything, "t1").Return(&entity.Task{ID: "t1", LeadID: "l1", Status: entity.TaskCompleted}, nil)
	tasks.On("UpdateStatus", mock.Anything, "t1", entity.TaskPending).Return(nil)

	task, err := uc.ToggleTask(context.Background(), adminActor, "t1")
	require.NoError(t, err)
	assert.Equal(t, entity.TaskPending, task.Status)
}

func TestDeleteTaskChecksPipelineAccess(t *testing.T) {
	uc, tasks, leads, members := newTasks()
	leads.On("FindByID", mock.Anything, "l1").Return(&entity.Lead{ID: "l1", PipelineID: "p1"}, nil)
	tasks.On("FindByID", mock.Anything, "t1").Return(&entity.Task{ID: "t1", LeadID: "l1"}, nil)
	members.On("IsMember", mock.Anything, "p1", memberActor.UserID).Return(false, nil)

	err := uc.DeleteTask(context.Background(), memberActor, "t1")
	assert.ErrorIs(t, err, entity.ErrForbidden)
	tasks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
