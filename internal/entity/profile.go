package entity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type RoleGlobal string

const (
	RoleAdmin  RoleGlobal = "ADMIN"
	RoleMember RoleGlobal = "MEMBER"
)

func ParseRoleGlobal(s string) (RoleGlobal, error) {
	switch r := RoleGlobal(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Profile is the application-side record of an authenticated user.
type Profile struct {
	ID         string     `json:"id"`
	Name       *string    `json:"name"`
	Email      string     `json:"email"`
	RoleGlobal RoleGlobal `json:"role_global"`
	AvatarURL  *string    `json:"avatar_url"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.RoleGlobal == RoleAdmin
}

// DisplayName falls back to the email when no name was set.
func (p *Profile) DisplayName() string {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		return *p.Name
	}
	return p.Email
}

type ProfileRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	UpdateName(ctx context.Context, id string, name *string) error
	UpdateRole(ctx context.Context, id string, role RoleGlobal) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
