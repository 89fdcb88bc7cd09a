package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

const minPasswordLength = 6

type AdminUseCase struct {
	Profiles  entity.ProfileRepositoryInterface
	Members   entity.MemberRepositoryInterface
	Pipelines entity.PipelineRepositoryInterface
	Auth      AuthAdminService
	Access    *AccessPolicy
}

func NewAdminUseCase(
	profiles entity.ProfileRepositoryInterface,
	members entity.MemberRepositoryInterface,
	pipelines entity.PipelineRepositoryInterface,
	auth AuthAdminService,
	access *AccessPolicy,
) *AdminUseCase {
	return &AdminUseCase{
		Profiles:  profiles,
		Members:   members,
		Pipelines: pipelines,
		Auth:      auth,
		Access:    access,
	}
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UserView struct {
	entity.Profile
	PipelineIDs []string `json:"pipeline_ids"`
}

type UsersView struct {
	Users     []UserView        `json:"users"`
	Pipelines []entity.Pipeline `json:"pipelines"`
}

func (uc *AdminUseCase) ListUsers(ctx context.Context, actor Actor) (*UsersView, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	profiles, err := uc.Profiles.List(ctx)
	if err != nil {
		return nil, storeError(err, "profiles")
	}
	members, err := uc.Members.ListAll(ctx)
	if err != nil {
		return nil, storeError(err, "memberships")
	}
	pipelines, err := uc.Pipelines.ListActive(ctx)
	if err != nil {
		return nil, storeError(err, "pipelines")
	}

	byUser := make(map[string][]string)
	for _, m := range members {
		byUser[m.UserID] = append(byUser[m.UserID], m.PipelineID)
	}
	users := make([]UserView, len(profiles))
	for i, p := range profiles {
		ids := byUser[p.ID]
		if ids == nil {
			ids = []string{}
		}
		users[i] = UserView{Profile: p, PipelineIDs: ids}
	}
	return &UsersView{Users: users, Pipelines: pipelines}, nil
}

// CreateUser registers the account with the auth service (email already
// confirmed) and writes its profile. The auth account is deleted again when
// the profile write fails.
func (uc *AdminUseCase) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*entity.Profile, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	var errs []ValidationError
	if email == "" {
		errs = append(errs, ValidationError{Field: "email", Message: "email is required"})
	} else if !isEmail(email) {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid email"})
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		errs = append(errs, ValidationError{Field: "password", Message: "password must have at least 6 characters"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	profile := &entity.Profile{
		Email:      email,
		Name:       entity.NullIfEmpty(in.Name),
		RoleGlobal: entity.RoleMember,
		IsActive:   true,
	}

	tx := NewTransaction()
	tx.AddOperation("create auth user",
		func(ctx context.Context) error {
			id, err := uc.Auth.CreateUser(ctx, email, in.Password, strings.TrimSpace(in.Name))
			profile.ID = id
			return err
		},
		func(ctx context.Context) error { return uc.Auth.DeleteUser(ctx, profile.ID) },
	)
	tx.AddOperation("write profile",
		func(ctx context.Context) error { return uc.Profiles.Upsert(ctx, profile) },
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		return nil, &TechnicalError{Code: CodeAuthBackend, Message: "failed to create user", Err: err}
	}
	return profile, nil
}

// DeleteUser removes the user's memberships, profile and auth account, in
// that order. Admins cannot delete themselves.
func (uc *AdminUseCase) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return validationFailed([]ValidationError{{Field: "userId", Message: "userId is required"}})
	}
	if userID == actor.UserID {
		return invalid("you cannot remove yourself")
	}
	if !isUUID(userID) {
		return invalid("invalid userId")
	}

	if err := uc.Members.DeleteByUser(ctx, userID); err != nil {
		return storeError(err, "memberships")
	}
	if err := uc.Profiles.Delete(ctx, userID); err != nil && !errors.Is(err, entity.ErrNotFound) {
		return storeError(err, "profile")
	}
	if err := uc.Auth.DeleteUser(ctx, userID); err != nil {
		log.Printf("❌ failed to delete auth user %s: %v", userID, err)
		return &TechnicalError{Code: CodeAuthBackend, Message: "failed to remove user from authentication", Err: err}
	}
	return nil
}

func (uc *AdminUseCase) ResetPassword(ctx context.Context, actor Actor, userID, newPassword string) error {
	if strings.TrimSpace(userID) == "" || newPassword == "" {
		return invalid("userId and newPassword are required")
	}
	if !isUUID(userID) {
		return invalid("invalid userId")
	}
	if len(newPassword) < minPasswordLength {
		return validationFailed([]ValidationError{{Field: "newPassword", Message: "password must have at least 6 characters"}})
	}
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return err
	}

	if err := uc.Auth.UpdatePassword(ctx, userID, newPassword); err != nil {
		log.Printf("❌ failed to reset password for %s: %v", userID, err)
		return &TechnicalError{Code: CodeAuthBackend, Message: "failed to change the user's password", Err: err}
	}
	return nil
}

// ToggleAdmin flips the user's global role. Promotion replaces the user's
// memberships with an admin membership in every non-archived pipeline;
// demotion removes all of them. The last admin cannot be demoted.
func (uc *AdminUseCase) ToggleAdmin(ctx context.Context, actor Actor, userID string) (*entity.Profile, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	target, err := uc.Profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	if target.IsAdmin() {
		admins, err := uc.countAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, conflict("the last admin cannot be demoted", entity.ErrConflict)
		}
		if err := uc.Members.DeleteByUser(ctx, userID); err != nil {
			return nil, storeError(err, "memberships")
		}
		if err := uc.Profiles.UpdateRole(ctx, userID, entity.RoleMember); err != nil {
			return nil, storeError(err, "profile")
		}
		target.RoleGlobal = entity.RoleMember
		return target, nil
	}

	pipelines, err := uc.Pipelines.ListActive(ctx)
	if err != nil {
		return nil, storeError(err, "pipelines")
	}
	if err := uc.Members.DeleteByUser(ctx, userID); err != nil {
		return nil, storeError(err, "memberships")
	}
	rows := make([]entity.PipelineMember, len(pipelines))
	for i, p := range pipelines {
		rows[i] = entity.PipelineMember{PipelineID: p.ID, UserID: userID, RoleInPipeline: entity.PipelineRoleAdmin}
	}
	if err := uc.Members.AddMany(ctx, rows); err != nil {
		return nil, storeError(err, "memberships")
	}
	if err := uc.Profiles.UpdateRole(ctx, userID, entity.RoleAdmin); err != nil {
		return nil, storeError(err, "profile")
	}
	target.RoleGlobal = entity.RoleAdmin
	return target, nil
}

func (uc *AdminUseCase) ToggleActive(ctx context.Context, actor Actor, userID string) (*entity.Profile, error) {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, invalid("you cannot deactivate yourself")
	}
	target, err := uc.Profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if err := uc.Profiles.SetActive(ctx, userID, !target.IsActive); err != nil {
		return nil, storeError(err, "profile")
	}
	target.IsActive = !target.IsActive
	return target, nil
}

// SetPipelineAccess replaces the user's memberships with member rows for
// pipelineIDs.
func (uc *AdminUseCase) SetPipelineAccess(ctx context.Context, actor Actor, userID string, pipelineIDs []string) error {
	if err := uc.Access.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	var errs []ValidationError
	seen := make(map[string]bool, len(pipelineIDs))
	rows := make([]entity.PipelineMember, 0, len(pipelineIDs))
	for _, id := range pipelineIDs {
		if !isUUID(id) {
			errs = append(errs, ValidationError{Field: "pipeline_ids", Message: "invalid pipeline id " + id})
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, entity.PipelineMember{PipelineID: id, UserID: userID, RoleInPipeline: entity.PipelineRoleMember})
	}
	if len(errs) > 0 {
		return validationFailed(errs)
	}
	if _, err := uc.Profiles.FindByID(ctx, userID); err != nil {
		return storeError(err, "user")
	}

	if err := uc.Members.DeleteByUser(ctx, userID); err != nil {
		return storeError(err, "memberships")
	}
	if len(rows) == 0 {
		return nil
	}
	return storeError(uc.Members.AddMany(ctx, rows), "memberships")
}

func (uc *AdminUseCase) countAdmins(ctx context.Context) (int, error) {
	profiles, err := uc.Profiles.List(ctx)
	if err != nil {
		return 0, storeError(err, "profiles")
	}
	n := 0
	for i := range profiles {
		if profiles[i].IsAdmin() {
			n++
		}
	}
	return n, nil
}
