package department

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardflow/wardflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const depCols = `id, name, description, total_beds, occupied_beds, available_beds,
	maintenance_beds, head_of_department, contact_number, location, is_active,
	created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	var locJSON []byte
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.TotalBeds, &d.OccupiedBeds,
		&d.AvailableBeds, &d.MaintenanceBeds, &d.HeadOfDepartment,
		&d.ContactNumber, &locJSON, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(locJSON) > 0 {
		if err := json.Unmarshal(locJSON, &d.Location); err != nil {
			return nil, fmt.Errorf("decoding location: %w", err)
		}
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	locJSON, err := json.Marshal(d.Location)
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO departments (id, name, description, total_beds, occupied_beds,
			available_beds, maintenance_beds, head_of_department, contact_number,
			location, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, now(), now())`,
		d.ID, d.Name, d.Description, d.TotalBeds, d.OccupiedBeds,
		d.AvailableBeds, d.MaintenanceBeds, d.HeadOfDepartment, d.ContactNumber,
		locJSON)
	if err != nil {
		return fmt.Errorf("inserting department: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+depCols+` FROM departments WHERE id = $1`, id)
	d, err := scanDepartment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching department: %w", err)
	}
	return d, nil
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Department, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+depCols+` FROM departments WHERE name = $1`, name)
	d, err := scanDepartment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching department by name: %w", err)
	}
	return d, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+depCols+` FROM departments WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var out []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Department) error {
	locJSON, err := json.Marshal(d.Location)
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE departments SET description = $2, head_of_department = $3,
			contact_number = $4, location = $5, updated_at = now()
		WHERE id = $1`,
		d.ID, d.Description, d.HeadOfDepartment, d.ContactNumber, locJSON)
	if err != nil {
		return fmt.Errorf("updating department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateCounts(ctx context.Context, id uuid.UUID, total, occupied, available, maintenance int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE departments SET total_beds = $2, occupied_beds = $3,
			available_beds = $4, maintenance_beds = $5, updated_at = now()
		WHERE id = $1`,
		id, total, occupied, available, maintenance)
	if err != nil {
		return fmt.Errorf("updating department counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE departments SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
