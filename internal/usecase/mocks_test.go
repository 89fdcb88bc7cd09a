package usecase

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

type MockProfileRepository struct{ mock.Mock }

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context) ([]entity.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, p *entity.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileRepository) UpdateName(ctx context.Context, id string, name *string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, id string, role entity.RoleGlobal) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockProfileRepository) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPipelineRepository struct{ mock.Mock }

func (m *MockPipelineRepository) Create(ctx context.Context, p *entity.Pipeline) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPipelineRepository) FindByID(ctx context.Context, id string) (*entity.Pipeline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) ListActive(ctx context.Context) ([]entity.Pipeline, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) ListForMember(ctx context.Context, userID string) ([]entity.Pipeline, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) Update(ctx context.Context, p *entity.Pipeline) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPipelineRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockMemberRepository struct{ mock.Mock }

func (m *MockMemberRepository) IsMember(ctx context.Context, pipelineID, userID string) (bool, error) {
	args := m.Called(ctx, pipelineID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) AddMany(ctx context.Context, members []entity.PipelineMember) error {
	return m.Called(ctx, members).Error(0)
}

func (m *MockMemberRepository) DeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockMemberRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.MemberProfile, error) {
	args := m.Called(ctx, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MemberProfile), args.Error(1)
}

func (m *MockMemberRepository) ListAll(ctx context.Context) ([]entity.PipelineMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PipelineMember), args.Error(1)
}

type MockStageRepository struct{ mock.Mock }

func (m *MockStageRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.Stage, error) {
	args := m.Called(ctx, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Stage), args.Error(1)
}

func (m *MockStageRepository) FindByID(ctx context.Context, id string) (*entity.Stage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Stage), args.Error(1)
}

func (m *MockStageRepository) First(ctx context.Context, pipelineID string) (*entity.Stage, error) {
	args := m.Called(ctx, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Stage), args.Error(1)
}

func (m *MockStageRepository) CreateMany(ctx context.Context, stages []entity.Stage) error {
	return m.Called(ctx, stages).Error(0)
}

func (m *MockStageRepository) Rename(ctx context.Context, id, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockStageRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockLeadRepository struct{ mock.Mock }

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) CreateDeduplicated(ctx context.Context, lead *entity.Lead, field entity.DedupeField) error {
	return m.Called(ctx, lead, field).Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.Lead, error) {
	args := m.Called(ctx, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) UpdateStage(ctx context.Context, id, stageID string, order []string) error {
	return m.Called(ctx, id, stageID, order).Error(0)
}

func (m *MockLeadRepository) UpdateAssignee(ctx context.Context, id string, assignee *string) error {
	return m.Called(ctx, id, assignee).Error(0)
}

func (m *MockLeadRepository) UpdateNotes(ctx context.Context, id string, notes *string) error {
	return m.Called(ctx, id, notes).Error(0)
}

func (m *MockLeadRepository) UpdateOutcome(ctx context.Context, id string, outcome entity.LeadOutcome) error {
	return m.Called(ctx, id, outcome).Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeadRepository) AddTags(ctx context.Context, leadID string, tags []string) error {
	return m.Called(ctx, leadID, tags).Error(0)
}

func (m *MockLeadRepository) RemoveTag(ctx context.Context, leadID, tag string) error {
	return m.Called(ctx, leadID, tag).Error(0)
}

type MockActivityRepository struct{ mock.Mock }

func (m *MockActivityRepository) Append(ctx context.Context, a *entity.LeadActivity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockActivityRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadActivity, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadActivity), args.Error(1)
}

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Create(ctx context.Context, task *entity.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *entity.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id string, status entity.TaskStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Task, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Task), args.Error(1)
}

func (m *MockTaskRepository) ListForUser(ctx context.Context, userID string) ([]entity.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Task), args.Error(1)
}

type MockQueueProducer struct{ mock.Mock }

func (m *MockQueueProducer) PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockAuthAdmin struct{ mock.Mock }

func (m *MockAuthAdmin) CreateUser(ctx context.Context, email, password, name string) (string, error) {
	args := m.Called(ctx, email, password, name)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAdmin) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthAdmin) UpdatePassword(ctx context.Context, userID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

func (m *MockAuthAdmin) Logout(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

var (
	adminActor  = Actor{UserID: "admin-1", Email: "admin@example.com", Role: entity.RoleAdmin}
	memberActor = Actor{UserID: "member-1", Email: "member@example.com", Role: entity.RoleMember}
)

func activeProfile(id string, role entity.RoleGlobal) *entity.Profile {
	return &entity.Profile{ID: id, Email: id + "@example.com", RoleGlobal: role, IsActive: true}
}

func domainCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
