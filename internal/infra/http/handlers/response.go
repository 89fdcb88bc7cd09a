package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// statusFor maps use case error codes onto HTTP statuses.
func statusFor(code string) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodeForbidden:
		return http.StatusForbidden
	case usecase.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeUsecaseError renders domain errors as-is and technical errors with
// their public message only.
func writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, statusFor(de.Code), ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
		if te.Code == usecase.CodeAuthBackend {
			middleware.RecordIntegrationError("auth_admin")
		}
		writeErrorResponse(w, http.StatusInternalServerError, te.Code, te.Message)
		return
	}

	log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
	writeErrorResponse(w, http.StatusInternalServerError, usecase.CodeBackend, "internal error")
}

// decodeJSON reads a JSON body, answering 400 itself when it is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "Invalid JSON body")
		return false
	}
	return true
}

// actor returns the session actor; routes behind SessionAuth always have one.
func actor(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "missing session")
	}
	return a, ok
}
