package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

// publish sends a lead event after the write it describes already
// succeeded. Broker failures are logged and never surface to the caller.
func publish(ctx context.Context, q QueueProducerInterface, eventType string, lead *entity.Lead, assignee *entity.Profile) {
	if q == nil {
		return
	}
	event := queue.LeadEvent{
		Type:       eventType,
		LeadID:     lead.ID,
		PipelineID: lead.PipelineID,
		StageID:    lead.StageID,
		Title:      lead.Title,
		Source:     lead.Source,
		OccurredAt: time.Now().UTC(),
	}
	if lead.AssigneeUserID != nil {
		event.AssigneeID = *lead.AssigneeUserID
	}
	if assignee != nil {
		event.AssigneeEmail = assignee.Email
		event.AssigneeName = assignee.DisplayName()
	}
	if err := q.PublishLeadEvent(ctx, event); err != nil {
		log.Printf("⚠️ failed to publish %s for lead %s: %v", eventType, lead.ID, err)
	}
}

// appendActivity writes a timeline entry after the main write. Failures are
// logged and the main write stays in place.
func appendActivity(ctx context.Context, repo entity.ActivityRepositoryInterface, leadID string, typ entity.ActivityType, payload map[string]any, by *string) {
	if payload == nil {
		payload = map[string]any{}
	}
	err := repo.Append(ctx, &entity.LeadActivity{
		LeadID:    leadID,
		Type:      typ,
		Payload:   payload,
		CreatedBy: by,
	})
	if err != nil {
		log.Printf("⚠️ failed to record %s activity for lead %s: %v", typ, leadID, err)
	}
}

func strPtr(s string) *string {
	return &s
}
