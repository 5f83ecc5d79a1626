package billing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks how much of the net amount has been collected.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

// BillStatus tracks the bill's lifecycle, independent of payment progress.
type BillStatus string

const (
	BillDraft     BillStatus = "draft"
	BillGenerated BillStatus = "generated"
	BillSent      BillStatus = "sent"
	BillPaid      BillStatus = "paid"
	BillCancelled BillStatus = "cancelled"
)

func ValidBillStatus(s BillStatus) bool {
	switch s {
	case BillDraft, BillGenerated, BillSent, BillPaid, BillCancelled:
		return true
	}
	return false
}

// ChargeCategory classifies a medical charge line.
type ChargeCategory string

const (
	CategoryConsultation ChargeCategory = "consultation"
	CategoryMedication   ChargeCategory = "medication"
	CategoryProcedure    ChargeCategory = "procedure"
	CategoryTest         ChargeCategory = "test"
	CategoryEquipment    ChargeCategory = "equipment"
	CategoryOther        ChargeCategory = "other"
)

func ValidChargeCategory(c ChargeCategory) bool {
	switch c {
	case CategoryConsultation, CategoryMedication, CategoryProcedure,
		CategoryTest, CategoryEquipment, CategoryOther:
		return true
	}
	return false
}

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodInsurance    PaymentMethod = "insurance"
	MethodCheque       PaymentMethod = "cheque"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodBankTransfer,
		MethodInsurance, MethodCheque:
		return true
	}
	return false
}

// BedCharges covers the stay itself.
type BedCharges struct {
	DailyRate       float64 `json:"dailyRate"`
	NumberOfDays    int     `json:"numberOfDays"`
	TotalBedCharges float64 `json:"totalBedCharges"`
}

// MedicalCharge is one clinical line item on a bill.
type MedicalCharge struct {
	ID          uuid.UUID      `json:"id"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Category    ChargeCategory `json:"category"`
	Date        time.Time      `json:"date"`
}

// AdditionalCharge is a non-clinical line item (amenities, services).
type AdditionalCharge struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// Discounts are subtracted from the total before computing the balance.
type Discounts struct {
	Insurance float64 `json:"insuranceDiscount"`
	Hospital  float64 `json:"hospitalDiscount"`
	Other     float64 `json:"otherDiscounts"`
}

func (d Discounts) Total() float64 { return d.Insurance + d.Hospital + d.Other }

// Payment records money received against a bill.
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"paymentMethod"`
	Date          time.Time     `json:"paymentDate"`
	TransactionID string        `json:"transactionId,omitempty"`
	ReceivedBy    string        `json:"receivedBy,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// Bill is the full billing record for one admission. The derived totals are
// recomputed from the line items on every mutation; they are stored, never
// trusted from input.
type Bill struct {
	ID         uuid.UUID `json:"id"`
	BillNumber string    `json:"billNumber"`

	PatientID      uuid.UUID `json:"patient"`
	PatientName    string    `json:"patientName"`
	PatientCode    string    `json:"patientId"`
	DepartmentID   uuid.UUID `json:"department"`
	DepartmentName string    `json:"departmentName"`

	AdmissionDate time.Time  `json:"admissionDate"`
	DischargeDate *time.Time `json:"dischargeDate,omitempty"`

	BedCharges        BedCharges         `json:"bedCharges"`
	MedicalCharges    []MedicalCharge    `json:"medicalCharges"`
	AdditionalCharges []AdditionalCharge `json:"additionalCharges"`
	Discounts         Discounts          `json:"discounts"`
	Payments          []Payment          `json:"payments"`

	TotalAmount   float64 `json:"totalAmount"`
	NetAmount     float64 `json:"netAmount"`
	TotalPaid     float64 `json:"totalPaid"`
	BalanceAmount float64 `json:"balanceAmount"`

	PaymentStatus PaymentStatus `json:"paymentStatus"`
	BillStatus    BillStatus    `json:"billStatus"`

	GeneratedDate time.Time `json:"generatedDate"`
	DueDate       time.Time `json:"dueDate"`
	GeneratedBy   string    `json:"generatedBy,omitempty"`
	Notes         string    `json:"notes,omitempty"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recompute derives every total and the payment status from the line items.
// Callers mutate charges, discounts or payments, then call Recompute before
// persisting.
func (b *Bill) Recompute(now time.Time) {
	if b.BedCharges.NumberOfDays < 1 {
		b.BedCharges.NumberOfDays = 1
	}
	b.BedCharges.TotalBedCharges = b.BedCharges.DailyRate * float64(b.BedCharges.NumberOfDays)

	total := b.BedCharges.TotalBedCharges
	for _, c := range b.MedicalCharges {
		total += c.Amount
	}
	for _, c := range b.AdditionalCharges {
		total += c.Amount
	}
	b.TotalAmount = total

	b.NetAmount = math.Max(0, b.TotalAmount-b.Discounts.Total())

	paid := 0.0
	for _, p := range b.Payments {
		paid += p.Amount
	}
	b.TotalPaid = paid
	b.BalanceAmount = math.Max(0, b.NetAmount-b.TotalPaid)

	switch {
	case b.TotalPaid == 0:
		b.PaymentStatus = PaymentPending
	case b.TotalPaid >= b.NetAmount:
		b.PaymentStatus = PaymentPaid
	default:
		b.PaymentStatus = PaymentPartial
	}
	if b.PaymentStatus != PaymentPaid && now.After(b.DueDate) {
		b.PaymentStatus = PaymentOverdue
	}
}

// PaymentPercentage reports collection progress against the net amount. A
// fully discounted bill counts as 100 percent collected.
func (b *Bill) PaymentPercentage() int {
	if b.NetAmount == 0 {
		return 100
	}
	return int(math.Round(b.TotalPaid / b.NetAmount * 100))
}

// Finalized reports whether the bill can no longer accept charges or
// discount changes.
func (b *Bill) Finalized() bool {
	return b.BillStatus == BillPaid || b.BillStatus == BillCancelled
}

// HasTransaction reports whether a payment with the given external
// transaction id has already been recorded.
func (b *Bill) HasTransaction(transactionID string) bool {
	if transactionID == "" {
		return false
	}
	for _, p := range b.Payments {
		if p.TransactionID == transactionID {
			return true
		}
	}
	return false
}

type view struct {
	*Bill
	PaymentPercentage int `json:"paymentPercentage"`
}

// View wraps a bill with its derived payment percentage for JSON responses.
func View(b *Bill) interface{} {
	return view{Bill: b, PaymentPercentage: b.PaymentPercentage()}
}

// Views wraps a slice of bills.
func Views(bills []*Bill) []interface{} {
	out := make([]interface{}, len(bills))
	for i, b := range bills {
		out[i] = View(b)
	}
	return out
}
