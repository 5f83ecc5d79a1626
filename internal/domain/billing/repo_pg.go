package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const billCols = `id, bill_number, patient_id, patient_name, patient_code,
	department_id, department_name, admission_date, discharge_date,
	daily_rate, number_of_days, total_bed_charges,
	insurance_discount, hospital_discount, other_discounts,
	total_amount, net_amount, total_paid, balance_amount,
	payment_status, bill_status, generated_date, due_date, generated_by,
	notes, is_active, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.BillNumber, &b.PatientID, &b.PatientName, &b.PatientCode,
		&b.DepartmentID, &b.DepartmentName, &b.AdmissionDate, &b.DischargeDate,
		&b.BedCharges.DailyRate, &b.BedCharges.NumberOfDays, &b.BedCharges.TotalBedCharges,
		&b.Discounts.Insurance, &b.Discounts.Hospital, &b.Discounts.Other,
		&b.TotalAmount, &b.NetAmount, &b.TotalPaid, &b.BalanceAmount,
		&b.PaymentStatus, &b.BillStatus, &b.GeneratedDate, &b.DueDate, &b.GeneratedBy,
		&b.Notes, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	q := fmt.Sprintf(`INSERT INTO bills (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, now(), now())
		RETURNING created_at, updated_at`, billCols)
	err := r.conn(ctx).QueryRow(ctx, q,
		b.ID, b.BillNumber, b.PatientID, b.PatientName, b.PatientCode,
		b.DepartmentID, b.DepartmentName, b.AdmissionDate, b.DischargeDate,
		b.BedCharges.DailyRate, b.BedCharges.NumberOfDays, b.BedCharges.TotalBedCharges,
		b.Discounts.Insurance, b.Discounts.Hospital, b.Discounts.Other,
		b.TotalAmount, b.NetAmount, b.TotalPaid, b.BalanceAmount,
		b.PaymentStatus, b.BillStatus, b.GeneratedDate, b.DueDate, b.GeneratedBy,
		b.Notes, b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return r.saveLineItems(ctx, b)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	q := fmt.Sprintf(`SELECT %s FROM bills WHERE id = $1 AND is_active = true`, billCols)
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if err := r.loadLineItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	q := fmt.Sprintf(`SELECT %s FROM bills
		WHERE patient_id = $1 AND is_active = true
		ORDER BY generated_date DESC`, billCols)
	return r.queryBills(ctx, q, patientID)
}

func (r *repoPG) GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error) {
	q := fmt.Sprintf(`SELECT %s FROM bills
		WHERE patient_id = $1 AND is_active = true AND bill_status <> 'cancelled'
		ORDER BY generated_date DESC
		LIMIT 1`, billCols)
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, q, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get open bill: %w", err)
	}
	if err := r.loadLineItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error) {
	where := "WHERE is_active = true"
	args := []interface{}{}
	n := 0

	if f.PaymentStatus != "" {
		n++
		where += fmt.Sprintf(" AND payment_status = $%d", n)
		args = append(args, f.PaymentStatus)
	}
	if f.BillStatus != "" {
		n++
		where += fmt.Sprintf(" AND bill_status = $%d", n)
		args = append(args, f.BillStatus)
	}
	if f.DepartmentName != "" {
		n++
		where += fmt.Sprintf(" AND department_name = $%d", n)
		args = append(args, f.DepartmentName)
	}
	if f.Search != "" {
		n++
		where += fmt.Sprintf(" AND (patient_name ILIKE $%d OR patient_code ILIKE $%d OR bill_number ILIKE $%d)", n, n, n)
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	countQ := "SELECT count(*) FROM bills " + where
	if err := r.conn(ctx).QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	q := fmt.Sprintf(`SELECT %s FROM bills %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, billCols, where, n+1, n+2)
	args = append(args, limit, offset)

	bills, err := r.queryBills(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

func (r *repoPG) Update(ctx context.Context, b *Bill) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE bills SET
			discharge_date = $2,
			daily_rate = $3, number_of_days = $4, total_bed_charges = $5,
			insurance_discount = $6, hospital_discount = $7, other_discounts = $8,
			total_amount = $9, net_amount = $10, total_paid = $11, balance_amount = $12,
			payment_status = $13, bill_status = $14, due_date = $15, notes = $16,
			is_active = $17, updated_at = now()
		WHERE id = $1`,
		b.ID, b.DischargeDate,
		b.BedCharges.DailyRate, b.BedCharges.NumberOfDays, b.BedCharges.TotalBedCharges,
		b.Discounts.Insurance, b.Discounts.Hospital, b.Discounts.Other,
		b.TotalAmount, b.NetAmount, b.TotalPaid, b.BalanceAmount,
		b.PaymentStatus, b.BillStatus, b.DueDate, b.Notes, b.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.saveLineItems(ctx, b)
}

func (r *repoPG) ListOverdueCandidates(ctx context.Context, now time.Time) ([]*Bill, error) {
	q := fmt.Sprintf(`SELECT %s FROM bills
		WHERE is_active = true
		  AND payment_status IN ('pending', 'partial')
		  AND due_date < $1
		ORDER BY due_date ASC`, billCols)
	return r.queryBills(ctx, q, now)
}

func (r *repoPG) CountByPaymentStatus(ctx context.Context) ([]PaymentStatusGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT payment_status, count(*),
			coalesce(sum(net_amount), 0), coalesce(sum(total_paid), 0)
		FROM bills WHERE is_active = true
		GROUP BY payment_status`)
	if err != nil {
		return nil, fmt.Errorf("payment status stats: %w", err)
	}
	defer rows.Close()

	var out []PaymentStatusGroup
	for rows.Next() {
		var g PaymentStatusGroup
		if err := rows.Scan(&g.Status, &g.Count, &g.NetAmount, &g.TotalPaid); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repoPG) CountByBillStatus(ctx context.Context) ([]BillStatusGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT bill_status, count(*)
		FROM bills WHERE is_active = true
		GROUP BY bill_status`)
	if err != nil {
		return nil, fmt.Errorf("bill status stats: %w", err)
	}
	defer rows.Close()

	var out []BillStatusGroup
	for rows.Next() {
		var g BillStatusGroup
		if err := rows.Scan(&g.Status, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repoPG) CountByDepartment(ctx context.Context) ([]DepartmentGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT department_name, count(*),
			coalesce(sum(total_paid), 0)
		FROM bills WHERE is_active = true
		GROUP BY department_name`)
	if err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	defer rows.Close()

	var out []DepartmentGroup
	for rows.Next() {
		var g DepartmentGroup
		if err := rows.Scan(&g.DepartmentName, &g.Count, &g.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repoPG) GetTotals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.conn(ctx).QueryRow(ctx, `SELECT count(*),
			coalesce(sum(net_amount), 0),
			coalesce(sum(total_paid), 0),
			coalesce(sum(balance_amount), 0)
		FROM bills WHERE is_active = true`).
		Scan(&t.TotalBills, &t.TotalAmount, &t.TotalPaid, &t.TotalBalance)
	if err != nil {
		return Totals{}, fmt.Errorf("billing totals: %w", err)
	}
	return t, nil
}

func (r *repoPG) queryBills(ctx context.Context, q string, args ...interface{}) ([]*Bill, error) {
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range bills {
		if err := r.loadLineItems(ctx, b); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

// saveLineItems replaces the bill's charges and payments. Line items are
// append-only through the service, so a full rewrite stays small.
func (r *repoPG) saveLineItems(ctx context.Context, b *Bill) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM bill_charges WHERE bill_id = $1`, b.ID); err != nil {
		return fmt.Errorf("clear charges: %w", err)
	}
	for _, mc := range b.MedicalCharges {
		_, err := c.Exec(ctx, `INSERT INTO bill_charges
				(id, bill_id, kind, description, amount, category, charged_at)
			VALUES ($1, $2, 'medical', $3, $4, $5, $6)`,
			mc.ID, b.ID, mc.Description, mc.Amount, mc.Category, mc.Date)
		if err != nil {
			return fmt.Errorf("insert medical charge: %w", err)
		}
	}
	for _, ac := range b.AdditionalCharges {
		_, err := c.Exec(ctx, `INSERT INTO bill_charges
				(id, bill_id, kind, description, amount, category, charged_at)
			VALUES ($1, $2, 'additional', $3, $4, '', $5)`,
			ac.ID, b.ID, ac.Description, ac.Amount, ac.Date)
		if err != nil {
			return fmt.Errorf("insert additional charge: %w", err)
		}
	}

	if _, err := c.Exec(ctx, `DELETE FROM bill_payments WHERE bill_id = $1`, b.ID); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	for _, p := range b.Payments {
		_, err := c.Exec(ctx, `INSERT INTO bill_payments
				(id, bill_id, amount, method, paid_at, transaction_id, received_by, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, b.ID, p.Amount, p.Method, p.Date, p.TransactionID, p.ReceivedBy, p.Notes)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}
	return nil
}

func (r *repoPG) loadLineItems(ctx context.Context, b *Bill) error {
	c := r.conn(ctx)

	rows, err := c.Query(ctx, `SELECT id, kind, description, amount, category, charged_at
		FROM bill_charges WHERE bill_id = $1
		ORDER BY charged_at ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("load charges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id         uuid.UUID
			kind, desc string
			amount     float64
			category   ChargeCategory
			chargedAt  time.Time
		)
		if err := rows.Scan(&id, &kind, &desc, &amount, &category, &chargedAt); err != nil {
			return err
		}
		if kind == "medical" {
			b.MedicalCharges = append(b.MedicalCharges, MedicalCharge{
				ID: id, Description: desc, Amount: amount, Category: category, Date: chargedAt,
			})
		} else {
			b.AdditionalCharges = append(b.AdditionalCharges, AdditionalCharge{
				ID: id, Description: desc, Amount: amount, Date: chargedAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := c.Query(ctx, `SELECT id, amount, method, paid_at, transaction_id, received_by, notes
		FROM bill_payments WHERE bill_id = $1
		ORDER BY paid_at ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var p Payment
		if err := prows.Scan(&p.ID, &p.Amount, &p.Method, &p.Date, &p.TransactionID, &p.ReceivedBy, &p.Notes); err != nil {
			return err
		}
		b.Payments = append(b.Payments, p)
	}
	return prows.Err()
}
