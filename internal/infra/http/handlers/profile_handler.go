package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
	"github.com/xavierca1/pipeline-crm/internal/usecase"
)

type ProfileService interface {
	Me(ctx context.Context, actor usecase.Actor) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, actor usecase.Actor, name string) (*entity.Profile, error)
	Logout(ctx context.Context, accessToken string) string
}

type ProfileHandler struct {
	UC ProfileService
}

func NewProfileHandler(uc ProfileService) *ProfileHandler {
	return &ProfileHandler{UC: uc}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	profile, err := h.UC.Me(r.Context(), a)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	profile, err := h.UC.UpdateProfile(r.Context(), a, body.Name)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Logout works with or without a live session and always ends on the login
// page.
func (h *ProfileHandler) Logout(w http.ResponseWriter, r *http.Request) {
	target := h.UC.Logout(r.Context(), middleware.AccessTokenFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}
