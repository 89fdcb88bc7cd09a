package usecase

import (
	"context"

	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error
}

// AuthAdminService manages accounts in the hosted auth service.
type AuthAdminService interface {
	CreateUser(ctx context.Context, email, password, name string) (string, error)
	DeleteUser(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	Logout(ctx context.Context, accessToken string) error
}
