package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type ProfileUseCase struct {
	Profiles entity.ProfileRepositoryInterface
	Auth     AuthAdminService
	SiteURL  string
}

func NewProfileUseCase(profiles entity.ProfileRepositoryInterface, auth AuthAdminService, siteURL string) *ProfileUseCase {
	if siteURL == "" {
		siteURL = "http://localhost:3000"
	}
	return &ProfileUseCase{Profiles: profiles, Auth: auth, SiteURL: strings.TrimRight(siteURL, "/")}
}

func (uc *ProfileUseCase) Me(ctx context.Context, actor Actor) (*entity.Profile, error) {
	p, err := uc.Profiles.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "profile")
	}
	return p, nil
}

// UpdateProfile sets the display name. A blank name clears it.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, actor Actor, name string) (*entity.Profile, error) {
	n := entity.NullIfEmpty(name)
	if err := uc.Profiles.UpdateName(ctx, actor.UserID, n); err != nil {
		return nil, storeError(err, "profile")
	}
	return uc.Me(ctx, actor)
}

// Logout revokes the session with the auth service and returns where the
// browser goes next. A failed revocation still logs the user out locally.
func (uc *ProfileUseCase) Logout(ctx context.Context, accessToken string) string {
	if accessToken != "" && uc.Auth != nil {
		if err := uc.Auth.Logout(ctx, accessToken); err != nil {
			log.Printf("⚠️ failed to revoke session: %v", err)
		}
	}
	return uc.SiteURL + "/login"
}
