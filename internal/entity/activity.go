package entity

import (
	"context"
	"time"
)

type ActivityType string

const (
	ActivityStageChange    ActivityType = "stage_change"
	ActivityAssigneeChange ActivityType = "assignee_change"
	ActivityFieldEdit      ActivityType = "field_edit"
	ActivityNoteAdded      ActivityType = "note_added"
	ActivityTagAdded       ActivityType = "tag_added"
	ActivityTagRemoved     ActivityType = "tag_removed"
	ActivityCreated        ActivityType = "created"
)

// LeadActivity is an append-only timeline entry. Rows are never updated.
type LeadActivity struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	Type      ActivityType   `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy *string        `json:"created_by"`
}

type ActivityRepositoryInterface interface {
	Append(ctx context.Context, activity *LeadActivity) error
	ListByLead(ctx context.Context, leadID string) ([]LeadActivity, error)
}
