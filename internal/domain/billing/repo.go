package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a bill does not exist.
var ErrNotFound = errors.New("bill not found")

// Filter narrows bill listings.
type Filter struct {
	PaymentStatus  PaymentStatus
	BillStatus     BillStatus
	DepartmentName string
	Search         string
}

// PaymentStatusGroup aggregates bills by payment status.
type PaymentStatusGroup struct {
	Status    PaymentStatus `json:"status"`
	Count     int           `json:"count"`
	NetAmount float64       `json:"totalAmount"`
	TotalPaid float64       `json:"totalPaid"`
}

// BillStatusGroup aggregates bills by lifecycle status.
type BillStatusGroup struct {
	Status BillStatus `json:"status"`
	Count  int        `json:"count"`
}

// DepartmentGroup aggregates bills and revenue by department.
type DepartmentGroup struct {
	DepartmentName string  `json:"department"`
	Count          int     `json:"count"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// Totals is the all-bills rollup.
type Totals struct {
	TotalBills   int     `json:"totalBills"`
	TotalAmount  float64 `json:"totalAmount"`
	TotalPaid    float64 `json:"totalPaid"`
	TotalBalance float64 `json:"totalBalance"`
}

// Repository persists bills and their line items.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error)
	// GetOpenByPatient returns the patient's active non-cancelled bill, or
	// ErrNotFound.
	GetOpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error)
	Update(ctx context.Context, b *Bill) error
	// ListOverdueCandidates returns active bills still pending or partial
	// whose due date has passed.
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]*Bill, error)
	CountByPaymentStatus(ctx context.Context) ([]PaymentStatusGroup, error)
	CountByBillStatus(ctx context.Context) ([]BillStatusGroup, error)
	CountByDepartment(ctx context.Context) ([]DepartmentGroup, error)
	GetTotals(ctx context.Context) (Totals, error)
}
