package patient

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

const patientCols = `id, code, first_name, last_name, date_of_birth, gender,
	contact_number, email, address, emergency_contact, medical_history,
	insurance, admission_date, discharge_date, department_id, department_name,
	assigned_bed_id, admitting_doctor, reason_for_admission, diagnosis,
	treatment_plan, status, is_active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var addrJSON, ecJSON, mhJSON, insJSON []byte
	err := row.Scan(
		&p.ID, &p.Code, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.ContactNumber, &p.Email, &addrJSON, &ecJSON, &mhJSON, &insJSON,
		&p.Admission.AdmissionDate, &p.Admission.DischargeDate,
		&p.Admission.DepartmentID, &p.Admission.DepartmentName,
		&p.Admission.AssignedBedID, &p.Admission.AdmittingDoctor,
		&p.Admission.ReasonForAdmission, &p.Admission.Diagnosis,
		&p.Admission.TreatmentPlan, &p.Status, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		data []byte
		dst  interface{}
	}{
		{addrJSON, &p.Address},
		{ecJSON, &p.EmergencyContact},
		{mhJSON, &p.MedicalHistory},
		{insJSON, &p.Insurance},
	} {
		if len(f.data) > 0 {
			if err := json.Unmarshal(f.data, f.dst); err != nil {
				return nil, fmt.Errorf("decoding patient document field: %w", err)
			}
		}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	addrJSON, _ := json.Marshal(p.Address)
	ecJSON, _ := json.Marshal(p.EmergencyContact)
	mhJSON, _ := json.Marshal(p.MedicalHistory)
	insJSON, _ := json.Marshal(p.Insurance)

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, code, first_name, last_name, date_of_birth,
			gender, contact_number, email, address, emergency_contact,
			medical_history, insurance, admission_date, discharge_date,
			department_id, department_name, assigned_bed_id, admitting_doctor,
			reason_for_admission, diagnosis, treatment_plan, status, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, true, now(), now())`,
		p.ID, p.Code, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.ContactNumber, p.Email, addrJSON, ecJSON, mhJSON, insJSON,
		p.Admission.AdmissionDate, p.Admission.DischargeDate,
		p.Admission.DepartmentID, p.Admission.DepartmentName,
		p.Admission.AssignedBedID, p.Admission.AdmittingDoctor,
		p.Admission.ReasonForAdmission, p.Admission.Diagnosis,
		p.Admission.TreatmentPlan, p.Status)
	if err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE code = $1`, code)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient by code: %w", err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	addrJSON, _ := json.Marshal(p.Address)
	ecJSON, _ := json.Marshal(p.EmergencyContact)
	mhJSON, _ := json.Marshal(p.MedicalHistory)
	insJSON, _ := json.Marshal(p.Insurance)

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name = $2, last_name = $3, contact_number = $4,
			email = $5, address = $6, emergency_contact = $7, medical_history = $8,
			insurance = $9, discharge_date = $10, diagnosis = $11,
			treatment_plan = $12, status = $13, updated_at = now()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.ContactNumber, p.Email,
		addrJSON, ecJSON, mhJSON, insJSON,
		p.Admission.DischargeDate, p.Admission.Diagnosis,
		p.Admission.TreatmentPlan, p.Status)
	if err != nil {
		return fmt.Errorf("updating patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE is_active = true`
	args := []interface{}{}
	n := 0
	if f.Status != "" {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, f.Status)
	}
	if f.DepartmentName != "" {
		n++
		where += fmt.Sprintf(" AND department_name = $%d", n)
		args = append(args, f.DepartmentName)
	}
	if f.Search != "" {
		n++
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR code ILIKE $%d OR contact_number ILIKE $%d)`, n, n, n, n)
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting patients: %w", err)
	}

	query := `SELECT ` + patientCols + ` FROM patients` + where +
		fmt.Sprintf(` ORDER BY admission_date DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning patient: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, count(*) FROM patients
		WHERE is_active = true GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting patients by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) CountAdmittedByDepartment(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT department_name, count(*) FROM patients
		WHERE is_active = true AND status = 'admitted'
		GROUP BY department_name`)
	if err != nil {
		return nil, fmt.Errorf("counting admitted patients: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning department count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
