package usecase

import (
	"context"
	"strings"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type PipelineUseCase struct {
	Pipelines entity.PipelineRepositoryInterface
	Stages    entity.StageRepositoryInterface
	Members   entity.MemberRepositoryInterface
	Access    *AccessPolicy
}

func NewPipelineUseCase(
	pipelines entity.PipelineRepositoryInterface,
	stages entity.StageRepositoryInterface,
	members entity.MemberRepositoryInterface,
	access *AccessPolicy,
) *PipelineUseCase {
	return &PipelineUseCase{Pipelines: pipelines, Stages: stages, Members: members, Access: access}
}

type PipelineInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreatePipeline inserts the pipeline, makes the creator its admin and seeds
// the default stages. The pipeline row is removed again when a later step
// fails.
func (uc *PipelineUseCase) CreatePipeline(ctx context.Context, actor Actor, input PipelineInput) (*entity.Pipeline, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationFailed([]ValidationError{{Field: "name", Message: "name is required"}})
	}

	p := &entity.Pipeline{
		Name:        name,
		Description: entity.NullIfEmpty(input.Description),
		CreatedBy:   strPtr(actor.UserID),
	}

	tx := NewTransaction()
	tx.AddOperation("create pipeline",
		func(ctx context.Context) error { return uc.Pipelines.Create(ctx, p) },
		func(ctx context.Context) error { return uc.Pipelines.Delete(ctx, p.ID) },
	)
	tx.AddOperation("add creator as admin",
		func(ctx context.Context) error {
			return uc.Members.AddMany(ctx, []entity.PipelineMember{{
				PipelineID:     p.ID,
				UserID:         actor.UserID,
				RoleInPipeline: entity.PipelineRoleAdmin,
			}})
		},
		nil,
	)
	tx.AddOperation("seed default stages",
		func(ctx context.Context) error {
			stages := make([]entity.Stage, len(entity.DefaultStageNames))
			for i, n := range entity.DefaultStageNames {
				stages[i] = entity.Stage{PipelineID: p.ID, Name: n, Position: i}
			}
			return uc.Stages.CreateMany(ctx, stages)
		},
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		return nil, technical("failed to create pipeline", err)
	}
	return p, nil
}

// ListPipelines returns the non-archived pipelines the actor can open, newest
// first.
func (uc *PipelineUseCase) ListPipelines(ctx context.Context, actor Actor) ([]entity.Pipeline, error) {
	return accessiblePipelines(ctx, uc.Pipelines, actor)
}

func (uc *PipelineUseCase) UpdatePipeline(ctx context.Context, actor Actor, id string, input PipelineInput) (*entity.Pipeline, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationFailed([]ValidationError{{Field: "name", Message: "name is required"}})
	}

	p, err := uc.Pipelines.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "pipeline")
	}
	p.Name = name
	p.Description = entity.NullIfEmpty(input.Description)
	if err := uc.Pipelines.Update(ctx, p); err != nil {
		return nil, storeError(err, "pipeline")
	}
	return p, nil
}

// ArchivePipeline hides a pipeline from listings and ingestion. Its rows stay.
func (uc *PipelineUseCase) ArchivePipeline(ctx context.Context, actor Actor, id string) error {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	p, err := uc.Pipelines.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "pipeline")
	}
	if p.IsArchived {
		return nil
	}
	p.IsArchived = true
	return storeError(uc.Pipelines.Update(ctx, p), "pipeline")
}
