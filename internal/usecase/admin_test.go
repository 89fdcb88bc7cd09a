package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type adminMocks struct {
	profiles  *MockProfileRepository
	members   *MockMemberRepository
	pipelines *MockPipelineRepository
	auth      *MockAuthAdmin
}

func newAdmin() (*AdminUseCase, adminMocks) {
	m := adminMocks{
		profiles:  new(MockProfileRepository),
		members:   new(MockMemberRepository),
		pipelines: new(MockPipelineRepository),
		auth:      new(MockAuthAdmin),
	}
	m.profiles.On("FindByID", mock.Anything, adminActor.UserID).Return(activeProfile(adminActor.UserID, entity.RoleAdmin), nil)
	uc := NewAdminUseCase(m.profiles, m.members, m.pipelines, m.auth, NewAccessPolicy(m.profiles, m.members))
	return uc, m
}

func TestToggleAdminPromotesIntoEveryActivePipeline(t *testing.T) {
	uc, m := newAdmin()
	m.profiles.On("FindByID", mock.Anything, "u2").Return(activeProfile("u2", entity.RoleMember), nil)
	m.pipelines.On("ListActive", mock.Anything).Return([]entity.Pipeline{{ID: "p1"}, {ID: "p2"}}, nil)
	m.members.On("DeleteByUser", mock.Anything, "u2").Return(nil)
	m.members.On("AddMany", mock.Anything, []entity.PipelineMember{
		{PipelineID: "p1", UserID: "u2", RoleInPipeline: entity.PipelineRoleAdmin},
		{PipelineID: "p2", UserID: "u2", RoleInPipeline: entity.PipelineRoleAdmin},
	}).Return(nil)
	m.profiles.On("UpdateRole", mock.Anything, "u2", entity.RoleAdmin).Return(nil)

	p, err := uc.ToggleAdmin(context.Background(), adminActor, "u2")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, p.RoleGlobal)
	m.members.AssertExpectations(t)
	m.profiles.AssertExpectations(t)
}

func TestToggleAdminDemoteRemovesAllMemberships(t *testing.T) {
	uc, m := newAdmin()
	m.profiles.On("FindByID", mock.Anything, "u2").Return(activeProfile("u2", entity.RoleAdmin), nil)
	m.profiles.On("List", mock.Anything).Return([]entity.Profile{
		*activeProfile(adminActor.UserID, entity.RoleAdmin),
		*activeProfile("u2", entity.RoleAdmin),
	}, nil)
	m.members.On("DeleteByUser", mock.Anything, "u2").Return(nil)
	m.profiles.On("UpdateRole", mock.Anything, "u2", entity.RoleMember).Return(nil)

	p, err := uc.ToggleAdmin(context.Background(), adminActor, "u2")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, p.RoleGlobal)
	m.members.AssertNotCalled(t, "AddMany", mock.Anything, mock.Anything)
	m.members.AssertExpectations(t)
}

func TestToggleAdminKeepsLastAdmin(t *testing.T) {
	uc, m := newAdmin()
	m.profiles.On("List", mock.Anything).Return([]entity.Profile{*activeProfile(adminActor.UserID, entity.RoleAdmin)}, nil)

	_, err := uc.ToggleAdmin(context.Background(), adminActor, adminActor.UserID)
	assert.Equal(t, CodeConflict, domainCode(err))
	m.members.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	uc, m := newAdmin()
	m.profiles.On("FindByID", mock.Anything, memberActor.UserID).Return(activeProfile(memberActor.UserID, entity.RoleMember), nil)

	// The actor claims admin but the stored profile says otherwise.
	claimed := memberActor
	claimed.Role = entity.RoleAdmin

	_, err := uc.ToggleAdmin(context.Background(), claimed, "u2")
	assert.ErrorIs(t, err, entity.ErrForbidden)
	err = uc.DeleteUser(context.Background(), claimed, "u2")
	assert.ErrorIs(t, err, entity.ErrForbidden)
	_, err = uc.ListUsers(context.Background(), claimed)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

const otherUserID = "3d4f6a8b-1c2e-4f5a-9b7c-8d9e0f1a2b3c"

func TestDeleteUser(t *testing.T) {
	t.Run("cannot delete yourself", func(t *testing.T) {
		uc, m := newAdmin()
		err := uc.DeleteUser(context.Background(), adminActor, adminActor.UserID)
		assert.Equal(t, CodeValidation, domainCode(err))
		m.auth.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("user id must be a uuid", func(t *testing.T) {
		uc, m := newAdmin()
		err := uc.DeleteUser(context.Background(), adminActor, "../../logout")
		assert.Equal(t, CodeValidation, domainCode(err))
		m.members.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
		m.auth.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("removes memberships, profile and auth user", func(t *testing.T) {
		uc, m := newAdmin()
		m.members.On("DeleteByUser", mock.Anything, otherUserID).Return(nil)
		m.profiles.On("Delete", mock.Anything, otherUserID).Return(nil)
		m.auth.On("DeleteUser", mock.Anything, otherUserID).Return(nil)

		require.NoError(t, uc.DeleteUser(context.Background(), adminActor, otherUserID))
		m.auth.AssertExpectations(t)
	})

	t.Run("auth failure is a backend error", func(t *testing.T) {
		uc, m := newAdmin()
		m.members.On("DeleteByUser", mock.Anything, otherUserID).Return(nil)
		m.profiles.On("Delete", mock.Anything, otherUserID).Return(entity.ErrNotFound)
		m.auth.On("DeleteUser", mock.Anything, otherUserID).Return(errors.New("User not found"))

		err := uc.DeleteUser(context.Background(), adminActor, otherUserID)
		assert.True(t, IsTechnicalError(err))
	})
}

func TestCreateUserCompensatesAuthUser(t *testing.T) {
	uc, m := newAdmin()
	m.auth.On("CreateUser", mock.Anything, "new@example.com", "secret1", "Nova").Return("u9", nil)
	m.profiles.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	m.auth.On("DeleteUser", mock.Anything, "u9").Return(nil)

	_, err := uc.CreateUser(context.Background(), adminActor, CreateUserInput{Email: " new@example.com ", Name: "Nova", Password: "secret1"})
	require.Error(t, err)
	m.auth.AssertExpectations(t)
}

func TestCreateUserWritesMemberProfile(t *testing.T) {
	uc, m := newAdmin()
	m.auth.On("CreateUser", mock.Anything, "new@example.com", "", "").Return("u9", nil)
	m.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *entity.Profile) bool {
		return p.ID == "u9" && p.RoleGlobal == entity.RoleMember && p.IsActive && p.Name == nil
	})).Return(nil)

	p, err := uc.CreateUser(context.Background(), adminActor, CreateUserInput{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u9", p.ID)
}

func TestResetPasswordValidation(t *testing.T) {
	uc, m := newAdmin()

	err := uc.ResetPassword(context.Background(), adminActor, "", "secret1")
	assert.Equal(t, CodeValidation, domainCode(err))
	err = uc.ResetPassword(context.Background(), adminActor, "u2/../x", "secret1")
	assert.Equal(t, CodeValidation, domainCode(err))
	err = uc.ResetPassword(context.Background(), adminActor, otherUserID, "12345")
	assert.Equal(t, CodeValidation, domainCode(err))

	m.auth.On("UpdatePassword", mock.Anything, otherUserID, "123456").Return(nil)
	require.NoError(t, uc.ResetPassword(context.Background(), adminActor, otherUserID, "123456"))
	m.auth.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestSetPipelineAccessReplacesMemberships(t *testing.T) {
	uc, m := newAdmin()
	const p1, p2 = "6f1c2a4e-8b1d-4c55-9a57-0d2b7f3e9c11", "0b8e3f9a-2c47-4d1e-8f6a-5e9d1c3b7a20"
	m.profiles.On("FindByID", mock.Anything, "u2").Return(activeProfile("u2", entity.RoleMember), nil)
	m.members.On("DeleteByUser", mock.Anything, "u2").Return(nil)
	m.members.On("AddMany", mock.Anything, []entity.PipelineMember{
		{PipelineID: p1, UserID: "u2", RoleInPipeline: entity.PipelineRoleMember},
		{PipelineID: p2, UserID: "u2", RoleInPipeline: entity.PipelineRoleMember},
	}).Return(nil)

	require.NoError(t, uc.SetPipelineAccess(context.Background(), adminActor, "u2", []string{p1, p2, p1}))
	m.members.AssertExpectations(t)

	err := uc.SetPipelineAccess(context.Background(), adminActor, "u2", []string{"nope"})
	assert.Equal(t, CodeValidation, domainCode(err))
}
