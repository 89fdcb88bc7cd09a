package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

func TestResolveActor(t *testing.T) {
	profiles := new(MockProfileRepository)
	access := NewAccessPolicy(profiles, new(MockMemberRepository))

	profiles.On("FindByID", mock.Anything, "u1").Return(activeProfile("u1", entity.RoleAdmin), nil)
	inactive := activeProfile("u2", entity.RoleMember)
	inactive.IsActive = false
	profiles.On("FindByID", mock.Anything, "u2").Return(inactive, nil)
	profiles.On("FindByID", mock.Anything, "u3").Return(nil, entity.ErrNotFound)

	actor, err := access.ResolveActor(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())

	_, err = access.ResolveActor(context.Background(), "u2")
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, err = access.ResolveActor(context.Background(), "u3")
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestRequirePipeline(t *testing.T) {
	members := new(MockMemberRepository)
	access := NewAccessPolicy(new(MockProfileRepository), members)
	members.On("IsMember", mock.Anything, "p1", memberActor.UserID).Return(true, nil)
	members.On("IsMember", mock.Anything, "p2", memberActor.UserID).Return(false, nil)

	assert.NoError(t, access.RequirePipeline(context.Background(), adminActor, "p2"))
	assert.NoError(t, access.RequirePipeline(context.Background(), memberActor, "p1"))
	assert.ErrorIs(t, access.RequirePipeline(context.Background(), memberActor, "p2"), entity.ErrForbidden)
	members.AssertNotCalled(t, "IsMember", mock.Anything, "p2", adminActor.UserID)
}

func TestProfileLogoutRedirects(t *testing.T) {
	auth := new(MockAuthAdmin)
	auth.On("Logout", mock.Anything, "tok").Return(assert.AnError)
	uc := NewProfileUseCase(new(MockProfileRepository), auth, "https://crm.example.com/")

	assert.Equal(t, "https://crm.example.com/login", uc.Logout(context.Background(), "tok"))
	assert.Equal(t, "https://crm.example.com/login", uc.Logout(context.Background(), ""))
	auth.AssertNumberOfCalls(t, "Logout", 1)
}

func TestUpdateProfileClearsBlankName(t *testing.T) {
	profiles := new(MockProfileRepository)
	uc := NewProfileUseCase(profiles, nil, "")
	profiles.On("UpdateName", mock.Anything, memberActor.UserID, (*string)(nil)).Return(nil)
	profiles.On("FindByID", mock.Anything, memberActor.UserID).Return(activeProfile(memberActor.UserID, entity.RoleMember), nil)

	_, err := uc.UpdateProfile(context.Background(), memberActor, "   ")
	require.NoError(t, err)
	profiles.AssertExpectations(t)
	assert.Equal(t, "http://localhost:3000", uc.SiteURL)
}
