package bed

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

const bedCols = `id, bed_number, department_id, department_name, status,
	grid_row, grid_column, current_patient_id, bed_type, equipment, daily_rate,
	last_cleaned, last_maintenance, notes, is_active, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	var equipJSON []byte
	err := row.Scan(
		&b.ID, &b.Number, &b.DepartmentID, &b.DepartmentName, &b.Status,
		&b.Position.Row, &b.Position.Column, &b.CurrentPatientID, &b.BedType,
		&equipJSON, &b.DailyRate, &b.LastCleaned, &b.LastMaintenance,
		&b.Notes, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(equipJSON) > 0 {
		if err := json.Unmarshal(equipJSON, &b.Equipment); err != nil {
			return nil, fmt.Errorf("decoding equipment: %w", err)
		}
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	equipJSON, err := json.Marshal(b.Equipment)
	if err != nil {
		return fmt.Errorf("encoding equipment: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO beds (id, bed_number, department_id, department_name, status,
			grid_row, grid_column, current_patient_id, bed_type, equipment,
			daily_rate, last_cleaned, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), $12, true, now(), now())`,
		b.ID, b.Number, b.DepartmentID, b.DepartmentName, b.Status,
		b.Position.Row, b.Position.Column, b.CurrentPatientID, b.BedType,
		equipJSON, b.DailyRate, b.Notes)
	if err != nil {
		return fmt.Errorf("inserting bed: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE id = $1`, id)
	b, err := scanBed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching bed: %w", err)
	}
	return b, nil
}

func (r *repoPG) GetByNumber(ctx context.Context, departmentID uuid.UUID, number string) (*Bed, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+bedCols+` FROM beds
		WHERE department_id = $1 AND bed_number = $2 AND is_active = true`,
		departmentID, number)
	b, err := scanBed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching bed by number: %w", err)
	}
	return b, nil
}

func (r *repoPG) GetByPosition(ctx context.Context, departmentID uuid.UUID, row, column int) (*Bed, error) {
	rw := r.conn(ctx).QueryRow(ctx, `
		SELECT `+bedCols+` FROM beds
		WHERE department_id = $1 AND grid_row = $2 AND grid_column = $3 AND is_active = true`,
		departmentID, row, column)
	b, err := scanBed(rw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching bed by position: %w", err)
	}
	return b, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Bed, error) {
	query := `SELECT ` + bedCols + ` FROM beds WHERE is_active = true`
	args := []interface{}{}
	n := 0
	if f.DepartmentID != nil {
		n++
		query += fmt.Sprintf(" AND department_id = $%d", n)
		args = append(args, *f.DepartmentID)
	}
	if f.DepartmentName != "" {
		n++
		query += fmt.Sprintf(" AND department_name = $%d", n)
		args = append(args, f.DepartmentName)
	}
	if f.Status != "" {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, f.Status)
	}
	query += " ORDER BY department_name, grid_row, grid_column"

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing beds: %w", err)
	}
	defer rows.Close()
	return collectBeds(rows)
}

func (r *repoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedCols+` FROM beds
		WHERE department_id = $1 AND is_active = true
		ORDER BY grid_row, grid_column`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("listing department beds: %w", err)
	}
	defer rows.Close()
	return collectBeds(rows)
}

func collectBeds(rows pgx.Rows) ([]*Bed, error) {
	var out []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, b *Bed) error {
	equipJSON, err := json.Marshal(b.Equipment)
	if err != nil {
		return fmt.Errorf("encoding equipment: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status = $2, current_patient_id = $3, equipment = $4,
			daily_rate = $5, last_cleaned = $6, last_maintenance = $7,
			notes = $8, updated_at = now()
		WHERE id = $1`,
		b.ID, b.Status, b.CurrentPatientID, equipJSON, b.DailyRate,
		b.LastCleaned, b.LastMaintenance, b.Notes)
	if err != nil {
		return fmt.Errorf("updating bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Occupy uses a conditional update so two concurrent admissions cannot both
// take the same bed: the second one matches zero rows.
func (r *repoPG) Occupy(ctx context.Context, bedID, patientID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status = 'occupied', current_patient_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'available' AND is_active = true`,
		bedID, patientID)
	if err != nil {
		return false, fmt.Errorf("occupying bed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Release(ctx context.Context, bedID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status = 'available', current_patient_id = NULL,
			last_cleaned = now(), updated_at = now()
		WHERE id = $1 AND status = 'occupied'`,
		bedID)
	if err != nil {
		return false, fmt.Errorf("releasing bed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) FindByPatient(ctx context.Context, patientID uuid.UUID) (*Bed, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+bedCols+` FROM beds
		WHERE current_patient_id = $1 AND status = 'occupied'`, patientID)
	b, err := scanBed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding bed by patient: %w", err)
	}
	return b, nil
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE beds SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeactivateByDepartment(ctx context.Context, departmentID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE beds SET is_active = false, updated_at = now() WHERE department_id = $1`,
		departmentID)
	if err != nil {
		return fmt.Errorf("deactivating department beds: %w", err)
	}
	return nil
}

func (r *repoPG) CountByStatus(ctx context.Context, departmentID uuid.UUID) (map[Status]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, count(*) FROM beds
		WHERE department_id = $1 AND is_active = true
		GROUP BY status`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("counting beds by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scanning bed count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) StatusNumbers(ctx context.Context, departmentID uuid.UUID) (map[Status][]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, array_agg(bed_number ORDER BY bed_number) FROM beds
		WHERE department_id = $1 AND is_active = true
		GROUP BY status`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("grouping bed numbers: %w", err)
	}
	defer rows.Close()

	out := make(map[Status][]string)
	for rows.Next() {
		var s Status
		var numbers []string
		if err := rows.Scan(&s, &numbers); err != nil {
			return nil, fmt.Errorf("scanning bed numbers: %w", err)
		}
		out[s] = numbers
	}
	return out, rows.Err()
}

func (r *repoPG) CountByType(ctx context.Context, departmentID uuid.UUID) (map[Type]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT bed_type, count(*) FROM beds
		WHERE department_id = $1 AND is_active = true
		GROUP BY bed_type`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("counting beds by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[Type]int)
	for rows.Next() {
		var t Type
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
