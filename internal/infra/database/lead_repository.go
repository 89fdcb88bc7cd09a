package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadSelect = `
	SELECT l.id, l.pipeline_id, l.stage_id, l.title, l.email, l.phone, l.phone_country_code,
	       l.whatsapp, l.website, l.source, l.assignee_user_id, l.notes, l.resumo,
	       l.nacionalidade, l.valor, l.outcome, l.position, l.created_at, l.updated_at,
	       COALESCE((SELECT array_agg(t.tag ORDER BY t.created_at) FROM lead_tags t WHERE t.lead_id = l.id), '{}')::text AS tags
	FROM leads l
`

// tags come back as the text form of a text[] ("{a,b}") and are parsed by
// pq.StringArray.
func scanLead(row interface{ Scan(...any) error }) (*entity.Lead, error) {
	var (
		l    entity.Lead
		tags pq.StringArray
	)
	err := row.Scan(
		&l.ID, &l.PipelineID, &l.StageID, &l.Title, &l.Email, &l.Phone, &l.PhoneCountryCode,
		&l.WhatsApp, &l.Website, &l.Source, &l.AssigneeUserID, &l.Notes, &l.Summary,
		&l.Nationality, &l.Value, &l.Outcome, &l.Position, &l.CreatedAt, &l.UpdatedAt,
		&tags,
	)
	if err != nil {
		return nil, err
	}
	l.Tags = []string(tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

// dedupeColumns whitelists the columns a dedupe field may touch.
var dedupeColumns = map[entity.DedupeField]string{
	entity.DedupeEmail:   "email",
	entity.DedupePhone:   "phone",
	entity.DedupeWebsite: "website",
}

const leadInsert = `
	INSERT INTO leads (
		pipeline_id, stage_id, title, email, phone, phone_country_code, whatsapp, website,
		source, assignee_user_id, notes, resumo, nacionalidade, valor, outcome, position
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id, created_at, updated_at
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertLead(ctx context.Context, q queryRower, l *entity.Lead) error {
	if l.Outcome == "" {
		l.Outcome = entity.OutcomeOpen
	}
	err := q.QueryRowContext(ctx, leadInsert,
		l.PipelineID, l.StageID, l.Title, l.Email, l.Phone, l.PhoneCountryCode, l.WhatsApp, l.Website,
		l.Source, l.AssigneeUserID, l.Notes, l.Summary, l.Nationality, l.Value, l.Outcome, l.Position,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return nil
}

func (r *LeadRepository) Create(ctx context.Context, l *entity.Lead) error {
	return insertLead(ctx, r.DB, l)
}

// CreateDeduplicated runs the duplicate check and the insert in one
// transaction holding an advisory lock on (pipeline, field, value), so two
// concurrent deliveries of the same lead cannot both pass the check.
func (r *LeadRepository) CreateDeduplicated(ctx context.Context, l *entity.Lead, field entity.DedupeField) error {
	column, ok := dedupeColumns[field]
	if !ok {
		return fmt.Errorf("unknown dedupe field %q", field)
	}
	value := l.DedupeValue(field)
	if value == "" {
		return r.Create(ctx, l)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, dedupeLockKey(l.PipelineID, field, value)); err != nil {
		return fmt.Errorf("failed to lock dedupe key: %w", err)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE pipeline_id = $1 AND `+column+` = $2)`,
		l.PipelineID, value,
	).Scan(&exists)
	if err != nil {
		return mapError(err)
	}
	if exists {
		return entity.ErrDuplicateLead
	}

	if err := insertLead(ctx, tx, l); err != nil {
		return err
	}
	return tx.Commit()
}

func dedupeLockKey(pipelineID string, field entity.DedupeField, value string) string {
	return "lead-dedupe:" + pipelineID + ":" + string(field) + ":" + value
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	l, err := scanLead(r.DB.QueryRowContext(ctx, leadSelect+` WHERE l.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (r *LeadRepository) ListByPipeline(ctx context.Context, pipelineID string) ([]entity.Lead, error) {
	return r.list(ctx, leadSelect+` WHERE l.pipeline_id = $1 ORDER BY l.position, l.created_at`, pipelineID)
}

// List returns leads newest first. With MemberUserID set only leads of
// non-archived pipelines the user belongs to are returned.
func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	if filter.MemberUserID == "" {
		return r.list(ctx, leadSelect+` ORDER BY l.created_at DESC`)
	}
	return r.list(ctx, leadSelect+`
		JOIN pipelines p ON p.id = l.pipeline_id AND p.is_archived = false
		WHERE l.pipeline_id IN (SELECT pipeline_id FROM pipeline_members WHERE user_id = $1)
		ORDER BY l.created_at DESC`, filter.MemberUserID)
}

func (r *LeadRepository) list(ctx context.Context, query string, args ...any) ([]entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepository) Update(ctx context.Context, l *entity.Lead) error {
	query := `
		UPDATE leads SET
			title = $2, email = $3, phone = $4, phone_country_code = $5, whatsapp = $6,
			website = $7, source = $8, notes = $9, assignee_user_id = $10, resumo = $11,
			nacionalidade = $12, valor = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		l.ID, l.Title, l.Email, l.Phone, l.PhoneCountryCode, l.WhatsApp,
		l.Website, l.Source, l.Notes, l.AssigneeUserID, l.Summary,
		l.Nationality, l.Value,
	).Scan(&l.UpdatedAt)
	return mapError(err)
}

// UpdateStage moves the lead and renumbers the target column in one
// transaction, so positions always match the order the user saw.
func (r *LeadRepository) UpdateStage(ctx context.Context, id, stageID string, order []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := expectRows(tx.ExecContext(ctx,
		`UPDATE leads SET stage_id = $2, updated_at = NOW() WHERE id = $1`, id, stageID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, renumberStageQuery, stageID, pq.Array(order)); err != nil {
		return mapError(err)
	}
	return tx.Commit()
}

const renumberStageQuery = `
	UPDATE leads AS l SET position = o.ord - 1
	FROM unnest($2::uuid[]) WITH ORDINALITY AS o(id, ord)
	WHERE l.id = o.id AND l.stage_id = $1`

func (r *LeadRepository) UpdateAssignee(ctx context.Context, id string, assignee *string) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE leads SET assignee_user_id = $2, updated_at = NOW() WHERE id = $1`, id, assignee))
}

func (r *LeadRepository) UpdateNotes(ctx context.Context, id string, notes *string) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE leads SET notes = $2, updated_at = NOW() WHERE id = $1`, id, notes))
}

func (r *LeadRepository) UpdateOutcome(ctx context.Context, id string, outcome entity.LeadOutcome) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE leads SET outcome = $2, updated_at = NOW() WHERE id = $1`, id, outcome))
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id))
}

// AddTags inserts tags for a lead. A tag the lead already has is ErrConflict.
func (r *LeadRepository) AddTags(ctx context.Context, leadID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO lead_tags (lead_id, tag) SELECT $1, unnest($2::text[])`, leadID, pq.Array(tags))
	return mapError(err)
}

func (r *LeadRepository) RemoveTag(ctx context.Context, leadID, tag string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM lead_tags WHERE lead_id = $1 AND tag = $2`, leadID, tag))
}
