package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type PipelineService interface {
	CreatePipeline(ctx context.Context, actor usecase.Actor, input usecase.PipelineInput) (*entity.Pipeline, error)
	ListPipelines(ctx context.Context, actor usecase.Actor) ([]entity.Pipeline, error)
	UpdatePipeline(ctx context.Context, actor usecase.Actor, id string, input usecase.PipelineInput) (*entity.Pipeline, error)
	ArchivePipeline(ctx context.Context, actor usecase.Actor, id string) error
}

type PipelineHandler struct {
	UC PipelineService
}

func NewPipelineHandler(uc PipelineService) *PipelineHandler {
	return &PipelineHandler{UC: uc}
}

func (h *PipelineHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	pipelines, err := h.UC.ListPipelines(r.Context(), a)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": pipelines})
}

func (h *PipelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.PipelineInput
	if !decodeJSON(w, r, &input) {
		return
	}
	p, err := h.UC.CreatePipeline(r.Context(), a, input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PipelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.PipelineInput
	if !decodeJSON(w, r, &input) {
		return
	}
	p, err := h.UC.UpdatePipeline(r.Context(), a, chi.URLParam(r, "id"), input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PipelineHandler) Archive(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.UC.ArchivePipeline(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
