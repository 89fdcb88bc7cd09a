package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type MemberRepository struct {
	DB *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{DB: db}
}

func (r *MemberRepository) IsMember(ctx context.Context, pipelineID, userID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pipeline_members WHERE pipeline_id = $1 AND user_id = $2)`,
		pipelineID, userID,
	).Scan(&ok)
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

// AddMany inserts all rows with one statement. Rows that already exist keep
// their role.
func (r *MemberRepository) AddMany(ctx context.Context, members []entity.PipelineMember) error {
	if len(members) == 0 {
		return nil
	}
	pipelineIDs := make([]string, len(members))
	userIDs := make([]string, len(members))
	roles := make([]string, len(members))
	for i, m := range members {
		pipelineIDs[i] = m.PipelineID
		userIDs[i] = m.UserID
		roles[i] = string(m.RoleInPipeline)
	}

	query := `
		INSERT INTO pipeline_members (pipeline_id, user_id, role_in_pipeline)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::text[])
		ON CONFLICT (pipeline_id, user_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, pq.Array(pipelineIDs), pq.Array(userIDs), pq.Array(roles))
	return mapError(err)
}

func (r *MemberRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM pipeline_members WHERE user_id = $1`, userID)
	return mapError(err)
}

func (r *MemberRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.MemberProfile, error) {
	query := `
		SELECT p.id, COALESCE(p.name, ''), p.email, p.role_global
		FROM pipeline_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.pipeline_id = $1 AND p.is_active
		ORDER BY COALESCE(p.name, p.email)
	`
	rows, err := r.DB.QueryContext(ctx, query, pipelineID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.MemberProfile{}
	for rows.Next() {
		var m entity.MemberProfile
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.RoleGlobal); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepository) ListAll(ctx context.Context) ([]entity.PipelineMember, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, pipeline_id, user_id, role_in_pipeline, created_at
		FROM pipeline_members
		ORDER BY created_at`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.PipelineMember{}
	for rows.Next() {
		var m entity.PipelineMember
		if err := rows.Scan(&m.ID, &m.PipelineID, &m.UserID, &m.RoleInPipeline, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
