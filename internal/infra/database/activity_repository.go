package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

// ActivityRepository only appends and reads; timeline rows are never updated.
type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Append(ctx context.Context, a *entity.LeadActivity) error {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode activity payload: %w", err)
	}
	query := `
		INSERT INTO lead_activities (lead_id, type, payload, created_by)
		VALUES ($1, $2, $3::jsonb, $4)
		RETURNING id, created_at
	`
	err = r.DB.QueryRowContext(ctx, query, a.LeadID, a.Type, string(payload), a.CreatedBy).Scan(&a.ID, &a.CreatedAt)
	return mapError(err)
}

// ListByLead returns the timeline newest first.
func (r *ActivityRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadActivity, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, type, COALESCE(payload, '{}'::jsonb)::text, created_at, created_by
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.LeadActivity{}
	for rows.Next() {
		var (
			a   entity.LeadActivity
			raw string
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Type, &raw, &a.CreatedAt, &a.CreatedBy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &a.Payload); err != nil {
			return nil, fmt.Errorf("activity %s: bad payload: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
