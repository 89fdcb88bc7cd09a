package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/handlers"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

const secret = "router-test-secret"

type stubAccess struct{ role entity.RoleGlobal }

func (s stubAccess) ResolveActor(_ context.Context, userID string) (usecase.Actor, error) {
	return usecase.Actor{UserID: userID, Role: s.role}, nil
}

func (s stubAccess) RequireAdmin(_ context.Context, a usecase.Actor) error {
	if a.Role != entity.RoleAdmin {
		return &usecase.DomainError{Code: usecase.CodeForbidden, Message: "admin role required"}
	}
	return nil
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type stubIngester struct{}

func (stubIngester) Authorize(token string) error {
	if token != "tok" {
		return &usecase.DomainError{Code: usecase.CodeUnauthorized, Message: "Invalid or missing API token"}
	}
	return nil
}

func (stubIngester) Execute(context.Context, usecase.IngestLeadInput) (*usecase.IngestLeadOutput, error) {
	return &usecase.IngestLeadOutput{Success: true}, nil
}

func testRouter(role entity.RoleGlobal) http.Handler {
	access := stubAccess{role: role}
	return newRouter(routerDeps{
		CORSOrigins: []string{"http://localhost:3000"},
		Session:     middleware.NewSessionAuth(secret, access),
		Admin:       access,
		Health:      handlers.NewHealthHandler(okPinger{}, nil, "test"),
		Ingest:      handlers.NewIngestHandler(stubIngester{}, nil),
		Profile:     handlers.NewProfileHandler(nil),
		Pipeline:    handlers.NewPipelineHandler(nil),
		Kanban:      handlers.NewKanbanHandler(nil),
		Lead:        handlers.NewLeadHandler(nil),
		Task:        handlers.NewTaskHandler(nil),
		AdminH:      handlers.NewAdminHandler(nil),
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := testRouter(entity.RoleMember)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_IngestUsesTokenNotSession(t *testing.T) {
	r := testRouter(entity.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/n8n/ingest-lead", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or missing API token")
}

func TestRouter_SessionRequired(t *testing.T) {
	r := testRouter(entity.RoleMember)

	for _, path := range []string{"/api/me", "/api/leads", "/api/tasks", "/api/pipelines"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	r := testRouter(entity.RoleMember)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
