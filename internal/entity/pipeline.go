package entity

import (
	"context"
	"fmt"
	"time"
)

type PipelineRole string

const (
	PipelineRoleAdmin  PipelineRole = "admin"
	PipelineRoleMember PipelineRole = "member"
)

func ParsePipelineRole(s string) (PipelineRole, error) {
	switch r := PipelineRole(s); r {
	case PipelineRoleAdmin, PipelineRoleMember:
		return r, nil
	}
	return "", fmt.Errorf("unknown pipeline role %q", s)
}

type Pipeline struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedBy   *string   `json:"created_by"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PipelineMember struct {
	ID             string       `json:"id"`
	PipelineID     string       `json:"pipeline_id"`
	UserID         string       `json:"user_id"`
	RoleInPipeline PipelineRole `json:"role_in_pipeline"`
	CreatedAt      time.Time    `json:"created_at"`
}

// MemberProfile is a pipeline member joined with its profile, as shown in
// assignee pickers.
type MemberProfile struct {
	UserID     string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	RoleGlobal RoleGlobal `json:"role_global"`
}

type Stage struct {
	ID         string    `json:"id"`
	PipelineID string    `json:"pipeline_id"`
	Name       string    `json:"name"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultStageNames seeds every new pipeline, in position order.
var DefaultStageNames = []string{"Entrada", "Qualificação", "Proposta", "Negociação", "Fechado"}

type PipelineRepositoryInterface interface {
	Create(ctx context.Context, p *Pipeline) error
	FindByID(ctx context.Context, id string) (*Pipeline, error)
	ListActive(ctx context.Context) ([]Pipeline, error)
	ListForMember(ctx context.Context, userID string) ([]Pipeline, error)
	Update(ctx context.Context, p *Pipeline) error
	Delete(ctx context.Context, id string) error
}

type MemberRepositoryInterface interface {
	IsMember(ctx context.Context, pipelineID, userID string) (bool, error)
	AddMany(ctx context.Context, members []PipelineMember) error
	DeleteByUser(ctx context.Context, userID string) error
	ListByPipeline(ctx context.Context, pipelineID string) ([]MemberProfile, error)
	ListAll(ctx context.Context) ([]PipelineMember, error)
}

type StageRepositoryInterface interface {
	ListByPipeline(ctx context.Context, pipelineID string) ([]Stage, error)
	FindByID(ctx context.Context, id string) (*Stage, error)
	First(ctx context.Context, pipelineID string) (*Stage, error)
	CreateMany(ctx context.Context, stages []Stage) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
