package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

type KanbanUseCase struct {
	Pipelines  entity.PipelineRepositoryInterface
	Stages     entity.StageRepositoryInterface
	Leads      entity.LeadRepositoryInterface
	Members    entity.MemberRepositoryInterface
	Activities entity.ActivityRepositoryInterface
	Access     *AccessPolicy
	Queue      QueueProducerInterface
}

func NewKanbanUseCase(
	pipelines entity.PipelineRepositoryInterface,
	stages entity.StageRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	members entity.MemberRepositoryInterface,
	activities entity.ActivityRepositoryInterface,
	access *AccessPolicy,
	queue QueueProducerInterface,
) *KanbanUseCase {
	return &KanbanUseCase{
		Pipelines:  pipelines,
		Stages:     stages,
		Leads:      leads,
		Members:    members,
		Activities: activities,
		Access:     access,
		Queue:      queue,
	}
}

// BoardView is everything the pipeline page renders.
type BoardView struct {
	Pipeline  *entity.Pipeline       `json:"pipeline"`
	Board     *entity.Board          `json:"board"`
	Members   []entity.MemberProfile `json:"members"`
	Pipelines []entity.Pipeline      `json:"pipelines"`
}

// MoveResult carries the board after a move. When the move fails Board is the
// snapshot taken before the drag, so the caller can restore it.
type MoveResult struct {
	Move  entity.Move   `json:"move"`
	Board *entity.Board `json:"board"`
}

func (uc *KanbanUseCase) LoadBoard(ctx context.Context, actor Actor, pipelineID string) (*BoardView, error) {
	if err := uc.Access.RequirePipeline(ctx, actor, pipelineID); err != nil {
		return nil, err
	}

	var (
		view   BoardView
		stages []entity.Stage
		leads  []entity.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.Pipelines.FindByID(gctx, pipelineID)
		if err != nil {
			return storeError(err, "pipeline")
		}
		if p.IsArchived {
			return notFound("pipeline not found")
		}
		view.Pipeline = p
		return nil
	})
	g.Go(func() (err error) {
		stages, err = uc.Stages.ListByPipeline(gctx, pipelineID)
		return storeError(err, "stages")
	})
	g.Go(func() (err error) {
		leads, err = uc.Leads.ListByPipeline(gctx, pipelineID)
		return storeError(err, "leads")
	})
	g.Go(func() (err error) {
		view.Members, err = uc.Members.ListByPipeline(gctx, pipelineID)
		return storeError(err, "members")
	})
	g.Go(func() (err error) {
		view.Pipelines, err = accessiblePipelines(gctx, uc.Pipelines, actor)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view.Board = entity.NewBoard(pipelineID, stages, leads)
	return &view, nil
}

// MoveLead applies a drop on a copy of the current board and persists the new
// stage along with the target column's order. Concurrent moves are last write
// wins.
func (uc *KanbanUseCase) MoveLead(ctx context.Context, actor Actor, pipelineID, leadID, overID string) (*MoveResult, error) {
	target, err := entity.ParseDropTarget(overID)
	if err != nil {
		return nil, invalid(err.Error())
	}

	view, err := uc.LoadBoard(ctx, actor, pipelineID)
	if err != nil {
		return nil, err
	}
	snapshot := view.Board
	board := snapshot.Clone()

	move, err := board.Move(leadID, target)
	switch {
	case errors.Is(err, entity.ErrNoopMove):
		return &MoveResult{Board: snapshot}, invalid("lead dropped on itself")
	case errors.Is(err, entity.ErrNotFound):
		return &MoveResult{Board: snapshot}, notFound(err.Error())
	case err != nil:
		return &MoveResult{Board: snapshot}, err
	}

	if err := uc.Leads.UpdateStage(ctx, move.LeadID, move.ToStageID, move.Order); err != nil {
		return &MoveResult{Move: move, Board: snapshot}, storeError(err, "lead")
	}

	appendActivity(ctx, uc.Activities, move.LeadID, entity.ActivityStageChange, map[string]any{
		"old_stage_id": move.FromStageID,
		"new_stage_id": move.ToStageID,
	}, strPtr(actor.UserID))

	si, li, _ := board.Locate(move.LeadID)
	publish(ctx, uc.Queue, queue.EventLeadMoved, &board.Stages[si].Leads[li], nil)

	return &MoveResult{Move: move, Board: board}, nil
}

// AddStage appends a stage after the current last one.
func (uc *KanbanUseCase) AddStage(ctx context.Context, actor Actor, pipelineID, name string) (*entity.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationFailed([]ValidationError{{Field: "name", Message: "name is required"}})
	}
	board, err := uc.editableBoard(ctx, actor, pipelineID)
	if err != nil {
		return nil, err
	}

	stage := entity.Stage{PipelineID: pipelineID, Name: name, Position: board.NextStagePosition()}
	created := []entity.Stage{stage}
	if err := uc.Stages.CreateMany(ctx, created); err != nil {
		return nil, storeError(err, "stage")
	}
	return &created[0], nil
}

func (uc *KanbanUseCase) RenameStage(ctx context.Context, actor Actor, pipelineID, stageID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationFailed([]ValidationError{{Field: "name", Message: "name is required"}})
	}
	board, err := uc.editableBoard(ctx, actor, pipelineID)
	if err != nil {
		return err
	}
	if _, ok := board.Stage(stageID); !ok {
		return notFound("stage not found")
	}
	return storeError(uc.Stages.Rename(ctx, stageID, name), "stage")
}

func (uc *KanbanUseCase) DeleteStage(ctx context.Context, actor Actor, pipelineID, stageID string) error {
	board, err := uc.editableBoard(ctx, actor, pipelineID)
	if err != nil {
		return err
	}

	switch err := board.CanDeleteStage(stageID); {
	case errors.Is(err, entity.ErrStageHasLeads):
		return conflict("stage still holds leads, move them first", err)
	case errors.Is(err, entity.ErrLastStage):
		return conflict("a pipeline needs at least one stage", err)
	case err != nil:
		return notFound("stage not found")
	}
	// a lead added since the board was read trips the foreign key
	if err := uc.Stages.Delete(ctx, stageID); errors.Is(err, entity.ErrConflict) {
		return conflict("stage still holds leads, move them first", err)
	} else if err != nil {
		return storeError(err, "stage")
	}
	return nil
}

// editableBoard loads the board for a stage edit, which only admins may do.
func (uc *KanbanUseCase) editableBoard(ctx context.Context, actor Actor, pipelineID string) (*entity.Board, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	view, err := uc.LoadBoard(ctx, actor, pipelineID)
	if err != nil {
		return nil, err
	}
	return view.Board, nil
}

func accessiblePipelines(ctx context.Context, repo entity.PipelineRepositoryInterface, actor Actor) ([]entity.Pipeline, error) {
	var (
		list []entity.Pipeline
		err  error
	)
	if actor.IsAdmin() {
		list, err = repo.ListActive(ctx)
	} else {
		list, err = repo.ListForMember(ctx, actor.UserID)
	}
	if err != nil {
		return nil, storeError(err, "pipelines")
	}
	return list, nil
}
