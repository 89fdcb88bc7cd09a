package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type TaskService interface {
	CreateTask(ctx context.Context, actor usecase.Actor, leadID string, in usecase.TaskInput) (*entity.Task, error)
	UpdateTask(ctx context.Context, actor usecase.Actor, taskID string, in usecase.TaskInput) (*entity.Task, error)
	ToggleTask(ctx context.Context, actor usecase.Actor, taskID string) (*entity.Task, error)
	DeleteTask(ctx context.Context, actor usecase.Actor, taskID string) error
	ListMyTasks(ctx context.Context, actor usecase.Actor) ([]entity.Task, error)
	ListLeadTasks(ctx context.Context, actor usecase.Actor, leadID string) ([]entity.Task, error)
}

type TaskHandler struct {
	UC TaskService
}

func NewTaskHandler(uc TaskService) *TaskHandler {
	return &TaskHandler{UC: uc}
}

func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	tasks, err := h.UC.ListMyTasks(r.Context(), a)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) ListForLead(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	tasks, err := h.UC.ListLeadTasks(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.TaskInput
	if !decodeJSON(w, r, &input) {
		return
	}
	task, err := h.UC.CreateTask(r.Context(), a, chi.URLParam(r, "id"), input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.TaskInput
	if !decodeJSON(w, r, &input) {
		return
	}
	task, err := h.UC.UpdateTask(r.Context(), a, chi.URLParam(r, "id"), input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	task, err := h.UC.ToggleTask(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.UC.DeleteTask(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
