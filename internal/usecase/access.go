package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

// Actor is the authenticated caller, resolved from the session subject and
// the profiles table.
type Actor struct {
	UserID string
	Email  string
	Role   entity.RoleGlobal
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

type AccessPolicy struct {
	Profiles entity.ProfileRepositoryInterface
	Members  entity.MemberRepositoryInterface
}

func NewAccessPolicy(profiles entity.ProfileRepositoryInterface, members entity.MemberRepositoryInterface) *AccessPolicy {
	return &AccessPolicy{Profiles: profiles, Members: members}
}

// ResolveActor loads the caller's profile. A missing or inactive profile is
// forbidden even with a valid session.
func (p *AccessPolicy) ResolveActor(ctx context.Context, userID string) (Actor, error) {
	profile, err := p.Profiles.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return Actor{}, forbidden("profile not found")
	}
	if err != nil {
		return Actor{}, storeError(err, "profile")
	}
	if !profile.IsActive {
		return Actor{}, forbidden("account is inactive")
	}
	return Actor{UserID: profile.ID, Email: profile.Email, Role: profile.RoleGlobal}, nil
}

// RequireAdmin re-reads the caller's role from the store instead of trusting
// the actor built earlier in the request.
func (p *AccessPolicy) RequireAdmin(ctx context.Context, actor Actor) error {
	profile, err := p.Profiles.FindByID(ctx, actor.UserID)
	if errors.Is(err, entity.ErrNotFound) {
		return forbidden("admin role required")
	}
	if err != nil {
		return storeError(err, "profile")
	}
	if !profile.IsAdmin() || !profile.IsActive {
		return forbidden("admin role required")
	}
	return nil
}

// RequirePipeline lets admins through and members of the pipeline.
func (p *AccessPolicy) RequirePipeline(ctx context.Context, actor Actor, pipelineID string) error {
	if actor.IsAdmin() {
		return nil
	}
	ok, err := p.Members.IsMember(ctx, pipelineID, actor.UserID)
	if err != nil {
		return storeError(err, "pipeline membership")
	}
	if !ok {
		return forbidden("not a member of this pipeline")
	}
	return nil
}
