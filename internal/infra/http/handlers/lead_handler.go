package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type LeadService interface {
	CreateLead(ctx context.Context, actor usecase.Actor, in usecase.LeadInput) (*entity.Lead, error)
	UpdateLead(ctx context.Context, actor usecase.Actor, in usecase.LeadInput) (*entity.Lead, error)
	ChangeAssignee(ctx context.Context, actor usecase.Actor, leadID, assigneeID string) (*entity.Lead, error)
	AddNote(ctx context.Context, actor usecase.Actor, leadID, note string) (*entity.Lead, error)
	AddTag(ctx context.Context, actor usecase.Actor, leadID, tag string) (*entity.Lead, error)
	RemoveTag(ctx context.Context, actor usecase.Actor, leadID, tag string) (*entity.Lead, error)
	SetOutcome(ctx context.Context, actor usecase.Actor, leadID, outcome string) (*entity.Lead, error)
	DeleteLead(ctx context.Context, actor usecase.Actor, leadID string) error
	GetLead(ctx context.Context, actor usecase.Actor, leadID string) (*usecase.LeadDetail, error)
	ListLeads(ctx context.Context, actor usecase.Actor) ([]entity.Lead, error)
}

type LeadHandler struct {
	UC LeadService
}

func NewLeadHandler(uc LeadService) *LeadHandler {
	return &LeadHandler{UC: uc}
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	leads, err := h.UC.ListLeads(r.Context(), a)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	detail, err := h.UC.GetLead(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.LeadInput
	if !decodeJSON(w, r, &input) {
		return
	}
	lead, err := h.UC.CreateLead(r.Context(), a, input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "lead": lead})
}

// Update takes the lead id in the body, like the create route.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var input usecase.LeadInput
	if !decodeJSON(w, r, &input) {
		return
	}
	lead, err := h.UC.UpdateLead(r.Context(), a, input)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "lead": lead})
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.UC.DeleteLead(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeadHandler) ChangeAssignee(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssigneeUserID string `json:"assignee_user_id"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error) {
		return h.UC.ChangeAssignee(ctx, a, id, body.AssigneeUserID)
	})
}

func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Note string `json:"note"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error) {
		return h.UC.AddNote(ctx, a, id, body.Note)
	})
}

func (h *LeadHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag string `json:"tag"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error) {
		return h.UC.AddTag(ctx, a, id, body.Tag)
	})
}

func (h *LeadHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error) {
		return h.UC.RemoveTag(ctx, a, id, chi.URLParam(r, "tag"))
	})
}

func (h *LeadHandler) SetOutcome(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome string `json:"outcome"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error) {
		return h.UC.SetOutcome(ctx, a, id, body.Outcome)
	})
}

// mutate decodes body (when given), runs fn on the {id} lead and writes the
// updated lead.
func (h *LeadHandler) mutate(w http.ResponseWriter, r *http.Request, body any,
	fn func(ctx context.Context, a usecase.Actor, id string) (*entity.Lead, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if body != nil && !decodeJSON(w, r, body) {
		return
	}
	lead, err := fn(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
