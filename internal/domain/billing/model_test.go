package billing

import (
	"testing"
	"time"
)

func sampleBill(now time.Time) *Bill {
	return &Bill{
		BedCharges: BedCharges{DailyRate: 2000, NumberOfDays: 3},
		DueDate:    now.AddDate(0, 0, 7),
	}
}

func TestRecompute_Totals(t *testing.T) {
	now := time.Now()
	b := sampleBill(now)
	b.MedicalCharges = []MedicalCharge{
		{Description: "X-Ray", Amount: 500, Category: CategoryTest},
		{Description: "Antibiotics", Amount: 300, Category: CategoryMedication},
	}
	b.AdditionalCharges = []AdditionalCharge{
		{Description: "Laundry", Amount: 200},
	}
	b.Discounts = Discounts{Insurance: 1000, Hospital: 500}
	b.Payments = []Payment{
		{Amount: 2000, Method: MethodCash},
		{Amount: 1000, Method: MethodUPI},
	}

	b.Recompute(now)

	if b.BedCharges.TotalBedCharges != 6000 {
		t.Errorf("TotalBedCharges = %v, want 6000", b.BedCharges.TotalBedCharges)
	}
	if b.TotalAmount != 7000 {
		t.Errorf("TotalAmount = %v, want 7000", b.TotalAmount)
	}
	if b.NetAmount != 5500 {
		t.Errorf("NetAmount = %v, want 5500", b.NetAmount)
	}
	if b.TotalPaid != 3000 {
		t.Errorf("TotalPaid = %v, want 3000", b.TotalPaid)
	}
	if b.BalanceAmount != 2500 {
		t.Errorf("BalanceAmount = %v, want 2500", b.BalanceAmount)
	}
	if b.PaymentStatus != PaymentPartial {
		t.Errorf("PaymentStatus = %v, want partial", b.PaymentStatus)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	now := time.Now()
	b := sampleBill(now)
	b.MedicalCharges = []MedicalCharge{{Description: "Scan", Amount: 1500, Category: CategoryTest}}
	b.Payments = []Payment{{Amount: 500, Method: MethodCard}}

	b.Recompute(now)
	first := *b
	b.Recompute(now)

	if b.TotalAmount != first.TotalAmount || b.NetAmount != first.NetAmount ||
		b.BalanceAmount != first.BalanceAmount || b.PaymentStatus != first.PaymentStatus {
		t.Errorf("second Recompute changed derived fields: %+v vs %+v", *b, first)
	}
}

func TestRecompute_NetNeverNegative(t *testing.T) {
	now := time.Now()
	b := sampleBill(now)
	b.Discounts = Discounts{Insurance: 100000}

	b.Recompute(now)

	if b.NetAmount != 0 {
		t.Errorf("NetAmount = %v, want 0", b.NetAmount)
	}
	if b.BalanceAmount != 0 {
		t.Errorf("BalanceAmount = %v, want 0", b.BalanceAmount)
	}
}

func TestRecompute_MinimumOneDay(t *testing.T) {
	now := time.Now()
	b := sampleBill(now)
	b.BedCharges.NumberOfDays = 0

	b.Recompute(now)

	if b.BedCharges.NumberOfDays != 1 {
		t.Errorf("NumberOfDays = %d, want 1", b.BedCharges.NumberOfDays)
	}
	if b.BedCharges.TotalBedCharges != 2000 {
		t.Errorf("TotalBedCharges = %v, want 2000", b.BedCharges.TotalBedCharges)
	}
}

func TestRecompute_PaymentStatus(t *testing.T) {
	now := time.Now()

	b := sampleBill(now)
	b.Recompute(now)
	if b.PaymentStatus != PaymentPending {
		t.Errorf("no payments: status = %v, want pending", b.PaymentStatus)
	}

	b.Payments = []Payment{{Amount: 6000, Method: MethodCash}}
	b.Recompute(now)
	if b.PaymentStatus != PaymentPaid {
		t.Errorf("fully paid: status = %v, want paid", b.PaymentStatus)
	}
}

func TestRecompute_OverdueOverride(t *testing.T) {
	now := time.Now()
	b := sampleBill(now)
	b.DueDate = now.AddDate(0, 0, -1)
	b.Payments = []Payment{{Amount: 100, Method: MethodCash}}

	b.Recompute(now)

	if b.PaymentStatus != PaymentOverdue {
		t.Errorf("past due partial: status = %v, want overdue", b.PaymentStatus)
	}

	// A fully paid bill is never overdue.
	b.Payments = []Payment{{Amount: 6000, Method: MethodCash}}
	b.Recompute(now)
	if b.PaymentStatus != PaymentPaid {
		t.Errorf("past due but paid: status = %v, want paid", b.PaymentStatus)
	}
}

func TestPaymentPercentage(t *testing.T) {
	b := &Bill{NetAmount: 3000, TotalPaid: 1000}
	if got := b.PaymentPercentage(); got != 33 {
		t.Errorf("PaymentPercentage = %d, want 33", got)
	}

	b = &Bill{NetAmount: 0, TotalPaid: 0}
	if got := b.PaymentPercentage(); got != 100 {
		t.Errorf("zero net: PaymentPercentage = %d, want 100", got)
	}
}

func TestHasTransaction(t *testing.T) {
	b := &Bill{Payments: []Payment{
		{Amount: 100, Method: MethodUPI, TransactionID: "TXN-1"},
		{Amount: 100, Method: MethodUPI},
	}}

	if !b.HasTransaction("TXN-1") {
		t.Error("expected TXN-1 to be found")
	}
	if b.HasTransaction("TXN-2") {
		t.Error("did not expect TXN-2")
	}
	if b.HasTransaction("") {
		t.Error("empty transaction id never matches")
	}
}
