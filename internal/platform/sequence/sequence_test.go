package sequence

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFormatPatientID(t *testing.T) {
	at := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	if got := FormatPatientID(at, 7); got != "PAT20260007" {
		t.Errorf("FormatPatientID = %q, want PAT20260007", got)
	}
	if got := FormatPatientID(at, 1234); got != "PAT20261234" {
		t.Errorf("FormatPatientID = %q, want PAT20261234", got)
	}
}

func TestFormatBillNumber(t *testing.T) {
	at := time.Date(2026, time.August, 29, 10, 0, 0, 0, time.UTC)
	if got := FormatBillNumber(at, 1); got != "BILL2026080001" {
		t.Errorf("FormatBillNumber = %q, want BILL2026080001", got)
	}

	jan := time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC)
	if got := FormatBillNumber(jan, 42); got != "BILL2027010042" {
		t.Errorf("FormatBillNumber = %q, want BILL2027010042", got)
	}
}

func TestScopesRotateByPeriod(t *testing.T) {
	dec := time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC)
	jan := time.Date(2027, time.January, 1, 0, 1, 0, 0, time.UTC)

	if PatientScope(dec) == PatientScope(jan) {
		t.Error("patient scope should change across year boundary")
	}
	if BillScope(dec) == BillScope(jan) {
		t.Error("bill scope should change across month boundary")
	}

	aug1 := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	aug31 := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	if BillScope(aug1) != BillScope(aug31) {
		t.Error("bill scope should be stable within a month")
	}
}

func TestMemorySequencer(t *testing.T) {
	seq := NewMemory()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, "patient:2026")
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Errorf("Next = %d, want %d", got, want)
		}
	}

	got, err := seq.Next(ctx, "bill:2026-08")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != 1 {
		t.Errorf("independent scope should start at 1, got %d", got)
	}
}

func TestMemorySequencerConcurrent(t *testing.T) {
	seq := NewMemory()
	ctx := context.Background()

	const n = 50
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(ctx, "patient:2026")
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		if unique[v] {
			t.Fatalf("duplicate serial %d issued", v)
		}
		unique[v] = true
	}
	if len(unique) != n {
		t.Fatalf("expected %d unique serials, got %d", n, len(unique))
	}
}
