package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type KanbanService interface {
	LoadBoard(ctx context.Context, actor usecase.Actor, pipelineID string) (*usecase.BoardView, error)
	MoveLead(ctx context.Context, actor usecase.Actor, pipelineID, leadID, overID string) (*usecase.MoveResult, error)
	AddStage(ctx context.Context, actor usecase.Actor, pipelineID, name string) (*entity.Stage, error)
	RenameStage(ctx context.Context, actor usecase.Actor, pipelineID, stageID, name string) error
	DeleteStage(ctx context.Context, actor usecase.Actor, pipelineID, stageID string) error
}

type KanbanHandler struct {
	UC KanbanService
}

func NewKanbanHandler(uc KanbanService) *KanbanHandler {
	return &KanbanHandler{UC: uc}
}

type MoveRequest struct {
	LeadID string `json:"lead_id"`
	OverID string `json:"over_id"`
}

// MoveErrorResponse returns the pre-drag board so the client can roll back.
type MoveErrorResponse struct {
	ErrorResponse
	Board *entity.Board `json:"board,omitempty"`
}

func (h *KanbanHandler) Board(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := h.UC.LoadBoard(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *KanbanHandler) Move(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.UC.MoveLead(r.Context(), a, chi.URLParam(r, "id"), req.LeadID, req.OverID)
	if err != nil {
		middleware.RecordLeadMove("rejected")
		if result == nil || result.Board == nil {
			writeUsecaseError(w, r, err)
			return
		}
		resp := MoveErrorResponse{Board: result.Board}
		var de *usecase.DomainError
		status := http.StatusInternalServerError
		if errors.As(err, &de) {
			status = statusFor(de.Code)
			resp.ErrorResponse = ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields}
		} else {
			resp.ErrorResponse = ErrorResponse{Error: usecase.CodeBackend, Message: "failed to move lead"}
		}
		writeJSON(w, status, resp)
		return
	}

	middleware.RecordLeadMove("moved")
	writeJSON(w, http.StatusOK, result)
}

type stageRequest struct {
	Name string `json:"name"`
}

func (h *KanbanHandler) AddStage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req stageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stage, err := h.UC.AddStage(r.Context(), a, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stage)
}

func (h *KanbanHandler) RenameStage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req stageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.UC.RenameStage(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "stageID"), req.Name); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KanbanHandler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.UC.DeleteStage(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "stageID")); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
