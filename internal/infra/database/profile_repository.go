package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

const profileColumns = `id, name, email, role_global, avatar_url, is_active, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*entity.Profile, error) {
	var p entity.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.RoleGlobal, &p.AvatarURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []entity.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (id, name, email, role_global, avatar_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			updated_at = NOW()
		RETURNING role_global, is_active, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Email, p.RoleGlobal, p.AvatarURL, p.IsActive,
	).Scan(&p.RoleGlobal, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *ProfileRepository) UpdateName(ctx context.Context, id string, name *string) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE profiles SET name = $2, updated_at = NOW() WHERE id = $1`, id, name))
}

func (r *ProfileRepository) UpdateRole(ctx context.Context, id string, role entity.RoleGlobal) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE profiles SET role_global = $2, updated_at = NOW() WHERE id = $1`, id, role))
}

func (r *ProfileRepository) SetActive(ctx context.Context, id string, active bool) error {
	return expectRows(r.DB.ExecContext(ctx,
		`UPDATE profiles SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active))
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	return expectRows(r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id))
}
