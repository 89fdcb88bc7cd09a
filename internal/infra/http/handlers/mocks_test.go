package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

var testActor = usecase.Actor{UserID: "11111111-1111-1111-1111-111111111111", Email: "ana@example.com", Role: entity.RoleMember}

func newRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withActor(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), testActor))
}

type MockIngester struct{ mock.Mock }

func (m *MockIngester) Authorize(token string) error {
	return m.Called(token).Error(0)
}

func (m *MockIngester) Execute(ctx context.Context, in usecase.IngestLeadInput) (*usecase.IngestLeadOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.IngestLeadOutput), args.Error(1)
}

type MockLeadService struct{ mock.Mock }

func (m *MockLeadService) lead(args mock.Arguments) (*entity.Lead, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadService) CreateLead(ctx context.Context, a usecase.Actor, in usecase.LeadInput) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, in))
}

func (m *MockLeadService) UpdateLead(ctx context.Context, a usecase.Actor, in usecase.LeadInput) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, in))
}

func (m *MockLeadService) ChangeAssignee(ctx context.Context, a usecase.Actor, leadID, assigneeID string) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, leadID, assigneeID))
}

func (m *MockLeadService) AddNote(ctx context.Context, a usecase.Actor, leadID, note string) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, leadID, note))
}

func (m *MockLeadService) AddTag(ctx context.Context, a usecase.Actor, leadID, tag string) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, leadID, tag))
}

func (m *MockLeadService) RemoveTag(ctx context.Context, a usecase.Actor, leadID, tag string) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, leadID, tag))
}

func (m *MockLeadService) SetOutcome(ctx context.Context, a usecase.Actor, leadID, outcome string) (*entity.Lead, error) {
	return m.lead(m.Called(ctx, a, leadID, outcome))
}

func (m *MockLeadService) DeleteLead(ctx context.Context, a usecase.Actor, leadID string) error {
	return m.Called(ctx, a, leadID).Error(0)
}

func (m *MockLeadService) GetLead(ctx context.Context, a usecase.Actor, leadID string) (*usecase.LeadDetail, error) {
	args := m.Called(ctx, a, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.LeadDetail), args.Error(1)
}

func (m *MockLeadService) ListLeads(ctx context.Context, a usecase.Actor) ([]entity.Lead, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

type MockKanbanService struct{ mock.Mock }

func (m *MockKanbanService) LoadBoard(ctx context.Context, a usecase.Actor, pipelineID string) (*usecase.BoardView, error) {
	args := m.Called(ctx, a, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.BoardView), args.Error(1)
}

func (m *MockKanbanService) MoveLead(ctx context.Context, a usecase.Actor, pipelineID, leadID, overID string) (*usecase.MoveResult, error) {
	args := m.Called(ctx, a, pipelineID, leadID, overID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MoveResult), args.Error(1)
}

func (m *MockKanbanService) AddStage(ctx context.Context, a usecase.Actor, pipelineID, name string) (*entity.Stage, error) {
	args := m.Called(ctx, a, pipelineID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Stage), args.Error(1)
}

func (m *MockKanbanService) RenameStage(ctx context.Context, a usecase.Actor, pipelineID, stageID, name string) error {
	return m.Called(ctx, a, pipelineID, stageID, name).Error(0)
}

func (m *MockKanbanService) DeleteStage(ctx context.Context, a usecase.Actor, pipelineID, stageID string) error {
	return m.Called(ctx, a, pipelineID, stageID).Error(0)
}

type MockAdminService struct{ mock.Mock }

func (m *MockAdminService) ListUsers(ctx context.Context, a usecase.Actor) (*usecase.UsersView, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UsersView), args.Error(1)
}

func (m *MockAdminService) CreateUser(ctx context.Context, a usecase.Actor, in usecase.CreateUserInput) (*entity.Profile, error) {
	args := m.Called(ctx, a, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, a usecase.Actor, userID string) error {
	return m.Called(ctx, a, userID).Error(0)
}

func (m *MockAdminService) ResetPassword(ctx context.Context, a usecase.Actor, userID, newPassword string) error {
	return m.Called(ctx, a, userID, newPassword).Error(0)
}

func (m *MockAdminService) ToggleAdmin(ctx context.Context, a usecase.Actor, userID string) (*entity.Profile, error) {
	args := m.Called(ctx, a, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAdminService) ToggleActive(ctx context.Context, a usecase.Actor, userID string) (*entity.Profile, error) {
	args := m.Called(ctx, a, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAdminService) SetPipelineAccess(ctx context.Context, a usecase.Actor, userID string, pipelineIDs []string) error {
	return m.Called(ctx, a, userID, pipelineIDs).Error(0)
}

type MockProfileService struct{ mock.Mock }

func (m *MockProfileService) Me(ctx context.Context, a usecase.Actor) (*entity.Profile, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, a usecase.Actor, name string) (*entity.Profile, error) {
	args := m.Called(ctx, a, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileService) Logout(ctx context.Context, accessToken string) string {
	return m.Called(ctx, accessToken).String(0)
}
