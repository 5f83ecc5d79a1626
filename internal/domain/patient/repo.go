package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

// Filter narrows patient listings. Search matches name, code, or contact
// number, case-insensitively.
type Filter struct {
	Status         Status
	DepartmentName string
	Search         string
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	CountAdmittedByDepartment(ctx context.Context) (map[string]int, error)
}

// BillSummary is the slice of a bill the patient history view needs.
type BillSummary struct {
	ID            uuid.UUID `json:"id"`
	BillNumber    string    `json:"billNumber"`
	TotalAmount   float64   `json:"totalAmount"`
	NetAmount     float64   `json:"netAmount"`
	TotalPaid     float64   `json:"totalPaid"`
	BalanceAmount float64   `json:"balanceAmount"`
	PaymentStatus string    `json:"paymentStatus"`
	BillStatus    string    `json:"billStatus"`
	GeneratedDate time.Time `json:"generatedDate"`
}

// BillingDirectory provides a patient's billing history. The billing service
// implements it.
type BillingDirectory interface {
	BillsForPatient(ctx context.Context, patientID uuid.UUID) ([]BillSummary, error)
}
