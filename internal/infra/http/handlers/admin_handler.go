package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type AdminService interface {
	ListUsers(ctx context.Context, actor usecase.Actor) (*usecase.UsersView, error)
	CreateUser(ctx context.Context, actor usecase.Actor, in usecase.CreateUserInput) (*entity.Profile, error)
	DeleteUser(ctx context.Context, actor usecase.Actor, userID string) error
	ResetPassword(ctx context.Context, actor usecase.Actor, userID, newPassword string) error
	ToggleAdmin(ctx context.Context, actor usecase.Actor, userID string) (*entity.Profile, error)
	ToggleActive(ctx context.Context, actor usecase.Actor, userID string) (*entity.Profile, error)
	SetPipelineAccess(ctx context.Context, actor usecase.Actor, userID string, pipelineIDs []string) error
}

type AdminHandler struct {
	UC AdminService
}

func NewAdminHandler(uc AdminService) *AdminHandler {
	return &AdminHandler{UC: uc}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := h.UC.ListUsers(r.Context(), a)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.CreateUserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	profile, err := h.UC.CreateUser(r.Context(), a, input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": profile})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.UC.DeleteUser(r.Context(), a, body.UserID); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body struct {
		UserID      string `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.UC.ResetPassword(r.Context(), a, body.UserID, body.NewPassword); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.UC.ToggleAdmin)
}

func (h *AdminHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.UC.ToggleActive)
}

func (h *AdminHandler) toggle(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, usecase.Actor, string) (*entity.Profile, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	profile, err := fn(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AdminHandler) SetPipelineAccess(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body struct {
		PipelineIDs []string `json:"pipeline_ids"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.UC.SetPipelineAccess(r.Context(), a, chi.URLParam(r, "id"), body.PipelineIDs); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
