package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type StageRepository struct {
	DB *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{DB: db}
}

const stageColumns = `id, pipeline_id, name, position, created_at`

func scanStage(row interface{ Scan(...any) error }) (*entity.Stage, error) {
	var s entity.Stage
	if err := row.Scan(&s.ID, &s.PipelineID, &s.Name, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.Stage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE pipeline_id = $1 ORDER BY position, created_at`, pipelineID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.Stage{}
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *StageRepository) FindByID(ctx context.Context, id string) (*entity.Stage, error) {
	s, err := scanStage(r.DB.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// First returns the lowest-positioned stage, where new leads land.
func (r *StageRepository) First(ctx context.Context, pipelineID string) (*entity.Stage, error) {
	s, err := scanStage(r.DB.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE pipeline_id = $1 ORDER BY position, created_at LIMIT 1`, pipelineID))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// CreateMany inserts stages in one statement and fills in their ids.
func (r *StageRepository) CreateMany(ctx context.Context, stages []entity.Stage) error {
	if len(stages) == 0 {
		return nil
	}
	pipelineIDs := make([]string, len(stages))
	names := make([]string, len(stages))
	positions := make([]int64, len(stages))
	for i, s := range stages {
		pipelineIDs[i] = s.PipelineID
		names[i] = s.Name
		positions[i] = int64(s.Position)
	}

	query := `
		INSERT INTO stages (pipeline_id, name, position)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::int[])
		RETURNING id, created_at, position
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(pipelineIDs), pq.Array(names), pq.Array(positions))
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	// RETURNING follows insert order for a single INSERT ... SELECT.
	for i := 0; rows.Next(); i++ {
		if i >= len(stages) {
			break
		}
		if err := rows.Scan(&stages[i].ID, &stages[i].CreatedAt, &stages[i].Position); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *StageRepository) Rename(ctx context.Context, id, name string) error {
	return expectRows(r.DB.ExecContext(ctx, `UPDATE stages SET name = $2 WHERE id = $1`, id, name))
}

// Delete refuses stages that still hold leads (foreign key) with ErrConflict.
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, id))
}
