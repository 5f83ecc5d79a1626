package billing

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
	"github.com/wardflow/wardflow/internal/platform/sequence"
)

// dueDays is how long after admission a bill falls due.
const dueDays = 7

type Service struct {
	repo      Repository
	seq       sequence.Sequencer
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, seq sequence.Sequencer, publisher events.Publisher) *Service {
	return &Service{repo: repo, seq: seq, publisher: publisher, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error) {
	if f.PaymentStatus != "" && !ValidPaymentStatus(f.PaymentStatus) {
		return nil, 0, apperr.Validation("invalid payment status filter")
	}
	if f.BillStatus != "" && !ValidBillStatus(f.BillStatus) {
		return nil, 0, apperr.Validation("invalid bill status filter")
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("BILL_NOT_FOUND", "Billing record not found")
	}
	return b, err
}

// OpenBillInput carries everything needed to open the initial bill for an
// admission.
type OpenBillInput struct {
	PatientID      uuid.UUID
	PatientName    string
	PatientCode    string
	DepartmentID   uuid.UUID
	DepartmentName string
	AdmissionDate  time.Time
	DailyRate      float64
	GeneratedBy    string
}

// Open creates the bill for a fresh admission: one day of bed charges at the
// bed's daily rate, due a week after admission. The admission coordinator
// calls it inside the admit transaction.
func (s *Service) Open(ctx context.Context, in OpenBillInput) (*Bill, error) {
	now := s.now()
	serial, err := s.seq.Next(ctx, sequence.BillScope(now))
	if err != nil {
		return nil, err
	}

	b := &Bill{
		ID:             uuid.New(),
		BillNumber:     sequence.FormatBillNumber(now, serial),
		PatientID:      in.PatientID,
		PatientName:    in.PatientName,
		PatientCode:    in.PatientCode,
		DepartmentID:   in.DepartmentID,
		DepartmentName: in.DepartmentName,
		AdmissionDate:  in.AdmissionDate,
		BedCharges: BedCharges{
			DailyRate:    in.DailyRate,
			NumberOfDays: 1,
		},
		BillStatus:    BillGenerated,
		GeneratedDate: now,
		DueDate:       in.AdmissionDate.AddDate(0, 0, dueDays),
		GeneratedBy:   in.GeneratedBy,
		IsActive:      true,
	}
	b.Recompute(now)

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// OpenByPatient returns the patient's current non-cancelled bill.
func (s *Service) OpenByPatient(ctx context.Context, patientID uuid.UUID) (*Bill, error) {
	b, err := s.repo.GetOpenByPatient(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("BILLING_NOT_FOUND", "No billing record found for patient")
	}
	return b, err
}

func (s *Service) AddMedicalCharge(ctx context.Context, id uuid.UUID, charge MedicalCharge) (*Bill, error) {
	if charge.Description == "" {
		return nil, apperr.Validation("description and amount are required")
	}
	if charge.Amount <= 0 {
		return nil, apperr.Conflict("INVALID_AMOUNT", "Charge amount must be greater than zero")
	}
	if charge.Category == "" {
		charge.Category = CategoryOther
	}
	if !ValidChargeCategory(charge.Category) {
		return nil, apperr.Validation("invalid charge category")
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Finalized() {
		return nil, apperr.Conflict("BILL_FINALIZED", "Cannot modify a paid or cancelled bill")
	}

	charge.ID = uuid.New()
	if charge.Date.IsZero() {
		charge.Date = s.now()
	}
	b.MedicalCharges = append(b.MedicalCharges, charge)
	b.Recompute(s.now())

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, b)
	return b, nil
}

func (s *Service) AddAdditionalCharge(ctx context.Context, id uuid.UUID, charge AdditionalCharge) (*Bill, error) {
	if charge.Description == "" {
		return nil, apperr.Validation("description and amount are required")
	}
	if charge.Amount <= 0 {
		return nil, apperr.Conflict("INVALID_AMOUNT", "Charge amount must be greater than zero")
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Finalized() {
		return nil, apperr.Conflict("BILL_FINALIZED", "Cannot modify a paid or cancelled bill")
	}

	charge.ID = uuid.New()
	if charge.Date.IsZero() {
		charge.Date = s.now()
	}
	b.AdditionalCharges = append(b.AdditionalCharges, charge)
	b.Recompute(s.now())

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, b)
	return b, nil
}

// PaymentInput is a payment submission.
type PaymentInput struct {
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
	Notes         string        `json:"notes"`
}

// AddPayment records money received against the bill. A payment may never
// exceed the outstanding balance, and a transaction id that was already
// recorded is refused so a retried request cannot double-charge.
func (s *Service) AddPayment(ctx context.Context, id uuid.UUID, in PaymentInput, receivedBy string) (*Bill, *Payment, error) {
	if in.Method == "" {
		return nil, nil, apperr.Validation("amount and payment method are required")
	}
	if !ValidPaymentMethod(in.Method) {
		return nil, nil, apperr.Validation("invalid payment method")
	}
	if in.Amount <= 0 {
		return nil, nil, apperr.Conflict("INVALID_AMOUNT", "Payment amount must be greater than zero")
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if b.BillStatus == BillCancelled {
		return nil, nil, apperr.Conflict("BILL_CANCELLED", "Cannot add payment to cancelled bill")
	}
	if b.HasTransaction(in.TransactionID) {
		return nil, nil, apperr.Conflict("DUPLICATE_TRANSACTION", "A payment with this transaction id was already recorded").
			WithMeta("transactionId", in.TransactionID)
	}
	if in.Amount > b.BalanceAmount {
		return nil, nil, apperr.Conflict("AMOUNT_EXCEEDS_BALANCE", "Payment amount cannot exceed balance amount").
			WithMeta("balanceAmount", b.BalanceAmount)
	}

	payment := Payment{
		ID:            uuid.New(),
		Amount:        in.Amount,
		Method:        in.Method,
		Date:          s.now(),
		TransactionID: in.TransactionID,
		ReceivedBy:    receivedBy,
		Notes:         in.Notes,
	}
	b.Payments = append(b.Payments, payment)
	b.Recompute(s.now())
	if b.PaymentStatus == PaymentPaid {
		b.BillStatus = BillPaid
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.TypePaymentReceived, map[string]interface{}{
		"billId":        b.ID,
		"billNumber":    b.BillNumber,
		"patientName":   b.PatientName,
		"paymentAmount": payment.Amount,
		"totalPaid":     b.TotalPaid,
		"balanceAmount": b.BalanceAmount,
		"paymentStatus": b.PaymentStatus,
	})
	return b, &payment, nil
}

// DiscountsInput updates only the discount fields the caller supplies.
type DiscountsInput struct {
	Insurance *float64 `json:"insuranceDiscount"`
	Hospital  *float64 `json:"hospitalDiscount"`
	Other     *float64 `json:"otherDiscounts"`
}

// ApplyDiscounts updates the supplied discounts, clamping each at zero.
// Over-discounting is allowed and the net amount bottoms out at zero.
func (s *Service) ApplyDiscounts(ctx context.Context, id uuid.UUID, in DiscountsInput) (*Bill, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Finalized() {
		return nil, apperr.Conflict("BILL_FINALIZED", "Cannot modify discounts for paid or cancelled bill")
	}

	if in.Insurance != nil {
		b.Discounts.Insurance = math.Max(0, *in.Insurance)
	}
	if in.Hospital != nil {
		b.Discounts.Hospital = math.Max(0, *in.Hospital)
	}
	if in.Other != nil {
		b.Discounts.Other = math.Max(0, *in.Other)
	}
	b.Recompute(s.now())

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, b)
	return b, nil
}

// SetStatus moves the bill through its lifecycle.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status BillStatus) (*Bill, error) {
	if status == "" {
		return nil, apperr.Validation("bill status is required")
	}
	if !ValidBillStatus(status) {
		return nil, apperr.Validation("invalid bill status")
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := b.BillStatus
	b.BillStatus = status
	b.Recompute(s.now())

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeBillStatusUpdated, map[string]interface{}{
		"billId":      b.ID,
		"billNumber":  b.BillNumber,
		"patientName": b.PatientName,
		"oldStatus":   oldStatus,
		"newStatus":   status,
	})
	return b, nil
}

// MarkPaid settles the bill regardless of payments on record, e.g. when the
// balance is written off. Restricted to administrators at the route level.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.BillStatus == BillCancelled {
		return nil, apperr.Conflict("BILL_CANCELLED", "Cannot settle a cancelled bill")
	}

	b.Recompute(s.now())
	b.PaymentStatus = PaymentPaid
	b.BillStatus = BillPaid

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, b)
	return b, nil
}

// CloseForDischarge stamps the discharge date and marks the bill paid. The
// admission coordinator calls it inside the discharge transaction, after
// verifying the balance is settled; the charges on record at that point are
// the bill, so the day count is never extended here.
func (s *Service) CloseForDischarge(ctx context.Context, id uuid.UUID, dischargeDate time.Time, notes string) (*Bill, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b.DischargeDate = &dischargeDate
	if notes != "" {
		b.Notes = notes
	}
	b.BillStatus = BillPaid
	b.Recompute(s.now())

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// OverdueResult is the overdue listing plus its rollup.
type OverdueResult struct {
	Bills              []*Bill `json:"overdueBills"`
	Total              int     `json:"total"`
	TotalOverdueAmount float64 `json:"totalOverdueAmount"`
}

// Overdue lists bills past their due date that are still unpaid, flipping
// each one's payment status to overdue as a side effect.
func (s *Service) Overdue(ctx context.Context) (*OverdueResult, error) {
	now := s.now()
	bills, err := s.repo.ListOverdueCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &OverdueResult{Bills: bills, Total: len(bills)}
	for _, b := range bills {
		result.TotalOverdueAmount += b.BalanceAmount
		if b.PaymentStatus != PaymentOverdue {
			b.PaymentStatus = PaymentOverdue
			if err := s.repo.Update(ctx, b); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// Stats is the billing dashboard summary.
type Stats struct {
	PaymentStats    []PaymentStatusGroup `json:"paymentStats"`
	BillStats       []BillStatusGroup    `json:"billStats"`
	DepartmentStats []DepartmentGroup    `json:"departmentStats"`
	Totals          Totals               `json:"totals"`
	Timestamp       time.Time            `json:"timestamp"`
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	paymentStats, err := s.repo.CountByPaymentStatus(ctx)
	if err != nil {
		return nil, err
	}
	billStats, err := s.repo.CountByBillStatus(ctx)
	if err != nil {
		return nil, err
	}
	departmentStats, err := s.repo.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.GetTotals(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		PaymentStats:    paymentStats,
		BillStats:       billStats,
		DepartmentStats: departmentStats,
		Totals:          totals,
		Timestamp:       s.now(),
	}, nil
}

// BillsForPatient serves the patient history view.
func (s *Service) BillsForPatient(ctx context.Context, patientID uuid.UUID) ([]patient.BillSummary, error) {
	bills, err := s.repo.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]patient.BillSummary, 0, len(bills))
	for _, b := range bills {
		out = append(out, patient.BillSummary{
			ID:            b.ID,
			BillNumber:    b.BillNumber,
			TotalAmount:   b.TotalAmount,
			NetAmount:     b.NetAmount,
			TotalPaid:     b.TotalPaid,
			BalanceAmount: b.BalanceAmount,
			PaymentStatus: string(b.PaymentStatus),
			BillStatus:    string(b.BillStatus),
			GeneratedDate: b.GeneratedDate,
		})
	}
	return out, nil
}

func (s *Service) publishUpdated(ctx context.Context, b *Bill) {
	s.publish(ctx, events.TypeBillingUpdated, map[string]interface{}{
		"billId":        b.ID,
		"billNumber":    b.BillNumber,
		"patientName":   b.PatientName,
		"totalAmount":   b.TotalAmount,
		"netAmount":     b.NetAmount,
		"totalPaid":     b.TotalPaid,
		"balanceAmount": b.BalanceAmount,
		"paymentStatus": b.PaymentStatus,
		"billStatus":    b.BillStatus,
	})
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	evt, err := events.New(eventType, events.TopicBilling, payload)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, evt)
}
