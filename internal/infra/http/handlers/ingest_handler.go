package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type LeadIngester interface {
	Authorize(token string) error
	Execute(ctx context.Context, in usecase.IngestLeadInput) (*usecase.IngestLeadOutput, error)
}

// IngestHandler serves the machine-to-machine endpoint used by the
// automation workflow.
type IngestHandler struct {
	UC      LeadIngester
	Limiter middleware.Limiter
}

// NewIngestHandler takes a nil limiter to disable rate limiting.
func NewIngestHandler(uc LeadIngester, limiter middleware.Limiter) *IngestHandler {
	return &IngestHandler{UC: uc, Limiter: limiter}
}

func (h *IngestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// token first, the body is not read for unauthenticated calls
	if err := h.UC.Authorize(ingestToken(r)); err != nil {
		middleware.RecordLeadIngested("unauthorized")
		writeUsecaseError(w, r, err)
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow(r.Context(), "ingest:"+middleware.ClientIP(r)) {
		middleware.RecordLeadIngested("rate_limited")
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	var input usecase.IngestLeadInput
	if !decodeJSON(w, r, &input) {
		middleware.RecordLeadIngested("invalid")
		return
	}

	output, err := h.UC.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordLeadIngested(ingestOutcome(err))
		writeUsecaseError(w, r, err)
		return
	}

	middleware.RecordLeadIngested("created")
	writeJSON(w, http.StatusOK, output)
}

// ingestToken accepts "Authorization: Bearer <t>" with any casing of the
// scheme, or an x-api-key header.
func ingestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("x-api-key"))
}

func ingestOutcome(err error) string {
	var de *usecase.DomainError
	if !errors.As(err, &de) {
		return "error"
	}
	switch de.Code {
	case usecase.CodeConflict:
		return "duplicate"
	case usecase.CodeValidation:
		return "invalid"
	case usecase.CodeNotFound:
		return "not_found"
	}
	return "error"
}
