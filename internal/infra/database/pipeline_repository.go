package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type PipelineRepository struct {
	DB *sql.DB
}

func NewPipelineRepository(db *sql.DB) *PipelineRepository {
	return &PipelineRepository{DB: db}
}

const pipelineColumns = `id, name, description, created_by, is_archived, created_at, updated_at`

func scanPipeline(row interface{ Scan(...any) error }) (*entity.Pipeline, error) {
	var p entity.Pipeline
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PipelineRepository) Create(ctx context.Context, p *entity.Pipeline) error {
	query := `
		INSERT INTO pipelines (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, is_archived, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, p.Name, p.Description, p.CreatedBy).
		Scan(&p.ID, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *PipelineRepository) FindByID(ctx context.Context, id string) (*entity.Pipeline, error) {
	p, err := scanPipeline(r.DB.QueryRowContext(ctx, `SELECT `+pipelineColumns+` FROM pipelines WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *PipelineRepository) ListActive(ctx context.Context) ([]entity.Pipeline, error) {
	return r.list(ctx, `
		SELECT `+pipelineColumns+` FROM pipelines
		WHERE is_archived = false
		ORDER BY created_at DESC`)
}

func (r *PipelineRepository) ListForMember(ctx context.Context, userID string) ([]entity.Pipeline, error) {
	return r.list(ctx, `
		SELECT `+pipelineColumns+` FROM pipelines
		WHERE is_archived = false
		  AND id IN (SELECT pipeline_id FROM pipeline_members WHERE user_id = $1)
		ORDER BY created_at DESC`, userID)
}

func (r *PipelineRepository) list(ctx context.Context, query string, args ...any) ([]entity.Pipeline, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.Pipeline{}
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PipelineRepository) Update(ctx context.Context, p *entity.Pipeline) error {
	query := `
		UPDATE pipelines
		SET name = $2, description = $3, is_archived = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, p.ID, p.Name, p.Description, p.IsArchived).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM pipelines WHERE id = $1`, id))
}
