package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

type kanbanMocks struct {
	pipelines  *MockPipelineRepository
	stages     *MockStageRepository
	leads      *MockLeadRepository
	members    *MockMemberRepository
	activities *MockActivityRepository
	profiles   *MockProfileRepository
	queue      *MockQueueProducer
}

func newKanban(t *testing.T, stages []entity.Stage, leads []entity.Lead) (*KanbanUseCase, kanbanMocks) {
	t.Helper()
	m := kanbanMocks{
		pipelines:  new(MockPipelineRepository),
		stages:     new(MockStageRepository),
		leads:      new(MockLeadRepository),
		members:    new(MockMemberRepository),
		activities: new(MockActivityRepository),
		profiles:   new(MockProfileRepository),
		queue:      new(MockQueueProducer),
	}
	m.pipelines.On("FindByID", mock.Anything, "p1").Return(&entity.Pipeline{ID: "p1", Name: "Vendas"}, nil)
	m.pipelines.On("ListActive", mock.Anything).Return([]entity.Pipeline{{ID: "p1"}}, nil)
	m.stages.On("ListByPipeline", mock.Anything, "p1").Return(stages, nil)
	m.leads.On("ListByPipeline", mock.Anything, "p1").Return(leads, nil)
	m.members.On("ListByPipeline", mock.Anything, "p1").Return([]entity.MemberProfile{}, nil)
	m.profiles.On("FindByID", mock.Anything, adminActor.UserID).Return(activeProfile(adminActor.UserID, entity.RoleAdmin), nil)

	access := NewAccessPolicy(m.profiles, m.members)
	uc := NewKanbanUseCase(m.pipelines, m.stages, m.leads, m.members, m.activities, access, m.queue)
	return uc, m
}

func threeStages() []entity.Stage {
	return []entity.Stage{
		{ID: "s1", PipelineID: "p1", Name: "Entrada", Position: 0},
		{ID: "s2", PipelineID: "p1", Name: "Proposta", Position: 1},
		{ID: "s3", PipelineID: "p1", Name: "Fechado", Position: 2},
	}
}

func someLeads() []entity.Lead {
	return []entity.Lead{
		{ID: "a", PipelineID: "p1", StageID: "s1", Title: "A", Position: 0},
		{ID: "b", PipelineID: "p1", StageID: "s1", Title: "B", Position: 1},
		{ID: "c", PipelineID: "p1", StageID: "s2", Title: "C", Position: 0},
	}
}

func stageLeadIDs(b *entity.Board, stageID string) []string {
	s, _ := b.Stage(stageID)
	ids := []string{}
	for _, l := range s.Leads {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestMoveLeadPersistsAndRecordsActivity(t *testing.T) {
	uc, m := newKanban(t, threeStages(), someLeads())
	m.leads.On("UpdateStage", mock.Anything, "a", "s2", []string{"c", "a"}).Return(nil)
	m.activities.On("Append", mock.Anything, mock.MatchedBy(func(a *entity.LeadActivity) bool {
		return a.Type == entity.ActivityStageChange &&
			a.Payload["old_stage_id"] == "s1" && a.Payload["new_stage_id"] == "s2"
	})).Return(nil)
	m.queue.On("PublishLeadEvent", mock.Anything, mock.MatchedBy(func(e queue.LeadEvent) bool {
		return e.Type == queue.EventLeadMoved && e.StageID == "s2"
	})).Return(nil)

	res, err := uc.MoveLead(context.Background(), adminActor, "p1", "a", "lead-c")
	require.NoError(t, err)

	assert.Equal(t, entity.Move{LeadID: "a", FromStageID: "s1", ToStageID: "s2", Position: 1, Order: []string{"c", "a"}}, res.Move)
	assert.Equal(t, []string{"b"}, stageLeadIDs(res.Board, "s1"))
	assert.Equal(t, []string{"c", "a"}, stageLeadIDs(res.Board, "s2"))
	m.leads.AssertExpectations(t)
	m.activities.AssertExpectations(t)
	m.queue.AssertExpectations(t)
}

func TestMoveLeadRevertsToSnapshotOnFailure(t *testing.T) {
	uc, m := newKanban(t, threeStages(), someLeads())
	m.leads.On("UpdateStage", mock.Anything, "a", "s3", []string{"a"}).Return(errors.New("connection reset"))

	res, err := uc.MoveLead(context.Background(), adminActor, "p1", "a", "stage-s3")
	require.Error(t, err)
	assert.True(t, IsTechnicalError(err))

	require.NotNil(t, res)
	assert.Equal(t, []string{"a", "b"}, stageLeadIDs(res.Board, "s1"))
	assert.Empty(t, stageLeadIDs(res.Board, "s3"))
	m.activities.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	m.queue.AssertNotCalled(t, "PublishLeadEvent", mock.Anything, mock.Anything)
}

func TestMoveLeadActivityFailureKeepsMove(t *testing.T) {
	uc, m := newKanban(t, threeStages(), someLeads())
	m.leads.On("UpdateStage", mock.Anything, "a", "s3", []string{"a"}).Return(nil)
	m.activities.On("Append", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	m.queue.On("PublishLeadEvent", mock.Anything, mock.Anything).Return(nil)

	res, err := uc.MoveLead(context.Background(), adminActor, "p1", "a", "stage-s3")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stageLeadIDs(res.Board, "s3"))
}

func TestMoveLeadRejectsBadDrops(t *testing.T) {
	uc, _ := newKanban(t, threeStages(), someLeads())

	_, err := uc.MoveLead(context.Background(), adminActor, "p1", "a", "column-s2")
	assert.Equal(t, CodeValidation, domainCode(err))

	_, err = uc.MoveLead(context.Background(), adminActor, "p1", "a", "lead-a")
	assert.Equal(t, CodeValidation, domainCode(err))

	_, err = uc.MoveLead(context.Background(), adminActor, "p1", "zzz", "stage-s2")
	assert.Equal(t, CodeNotFound, domainCode(err))
}

func TestLoadBoardForbidsNonMembers(t *testing.T) {
	uc, m := newKanban(t, threeStages(), someLeads())
	m.members.On("IsMember", mock.Anything, "p1", memberActor.UserID).Return(false, nil)

	_, err := uc.LoadBoard(context.Background(), memberActor, "p1")
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestLoadBoardHidesArchivedPipeline(t *testing.T) {
	uc, m := newKanban(t, threeStages(), someLeads())
	m.pipelines.ExpectedCalls = nil
	m.pipelines.On("FindByID", mock.Anything, "p1").Return(&entity.Pipeline{ID: "p1", IsArchived: true}, nil)
	m.pipelines.On("ListActive", mock.Anything).Return([]entity.Pipeline{}, nil)

	_, err := uc.LoadBoard(context.Background(), adminActor, "p1")
	assert.Equal(t, CodeNotFound, domainCode(err))
}

func TestDeleteStage(t *testing.T) {
	t.Run("stage with leads is rejected", func(t *testing.T) {
		uc, m := newKanban(t, threeStages(), someLeads())
		err := uc.DeleteStage(context.Background(), adminActor, "p1", "s1")
		assert.Equal(t, CodeConflict, domainCode(err))
		m.stages.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("last stage is rejected", func(t *testing.T) {
		uc, m := newKanban(t, threeStages()[:1], nil)
		err := uc.DeleteStage(context.Background(), adminActor, "p1", "s1")
		assert.Equal(t, CodeConflict, domainCode(err))
		assert.ErrorIs(t, err, entity.ErrLastStage)
		m.stages.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("empty stage is deleted", func(t *testing.T) {
		uc, m := newKanban(t, threeStages(), someLeads())
		m.stages.On("Delete", mock.Anything, "s3").Return(nil)
		require.NoError(t, uc.DeleteStage(context.Background(), adminActor, "p1", "s3"))
		m.stages.AssertExpectations(t)
	})

	t.Run("lead added after the check is still a stage conflict", func(t *testing.T) {
		uc, m := newKanban(t, threeStages(), someLeads())
		m.stages.On("Delete", mock.Anything, "s3").Return(fmt.Errorf("%w: violates foreign key", entity.ErrConflict))

		err := uc.DeleteStage(context.Background(), adminActor, "p1", "s3")
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, CodeConflict, de.Code)
		assert.Equal(t, "stage still holds leads, move them first", de.Message)
	})

	t.Run("members cannot edit stages", func(t *testing.T) {
		uc, m := newKanban(t, threeStages(), nil)
		m.profiles.On("FindByID", mock.Anything, memberActor.UserID).Return(activeProfile(memberActor.UserID, entity.RoleMember), nil)
		err := uc.DeleteStage(context.Background(), memberActor, "p1", "s3")
		assert.ErrorIs(t, err, entity.ErrForbidden)
	})
}

func TestAddStageUsesNextPosition(t *testing.T) {
	uc, m := newKanban(t, threeStages(), nil)
	m.stages.On("CreateMany", mock.Anything, []entity.Stage{{PipelineID: "p1", Name: "Perdido", Position: 3}}).Return(nil)

	stage, err := uc.AddStage(context.Background(), adminActor, "p1", "  Perdido ")
	require.NoError(t, err)
	assert.Equal(t, 3, stage.Position)
	m.stages.AssertExpectations(t)
}
