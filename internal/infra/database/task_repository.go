package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type TaskRepository struct {
	DB *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

const taskSelect = `
	SELECT t.id, t.lead_id, l.title, t.title, t.description, t.due_date, t.status,
	       t.assigned_to, t.created_at, t.updated_at
	FROM tasks t
	JOIN leads l ON l.id = t.lead_id
`

func scanTask(row interface{ Scan(...any) error }) (*entity.Task, error) {
	var t entity.Task
	err := row.Scan(&t.ID, &t.LeadID, &t.LeadTitle, &t.Title, &t.Description, &t.DueDate, &t.Status,
		&t.AssignedTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	query := `
		INSERT INTO tasks (lead_id, title, description, due_date, status, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, t.LeadID, t.Title, t.Description, t.DueDate, t.Status, t.AssignedTo).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *entity.Task) error {
	query := `
		UPDATE tasks SET title = $2, description = $3, due_date = $4, status = $5,
			assigned_to = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, t.ID, t.Title, t.Description, t.DueDate, t.Status, t.AssignedTo).
		Scan(&t.UpdatedAt)
	return mapError(err)
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status entity.TaskStatus) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status))
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id))
}

func (r *TaskRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+` WHERE t.lead_id = $1 ORDER BY t.due_date ASC NULLS LAST, t.created_at`, leadID)
}

func (r *TaskRepository) ListForUser(ctx context.Context, userID string) ([]entity.Task, error) {
	return r.list(ctx, taskSelect+`
		WHERE t.assigned_to = $1 OR t.assigned_to IS NULL
		ORDER BY t.due_date ASC NULLS LAST, t.created_at`, userID)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]entity.Task, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
