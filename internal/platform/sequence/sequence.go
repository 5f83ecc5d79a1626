// Package sequence issues gapless per-period serial numbers used for
// human-readable identifiers such as patient and bill numbers. Counters are
// stored one row per scope and advanced with an atomic upsert so concurrent
// callers never observe the same value.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Sequencer issues the next serial number for a scope. Scopes partition
// counters by kind and period, e.g. "patient:2026" or "bill:2026-08".
type Sequencer interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// PatientScope returns the counter scope for patient IDs issued in the year
// of t.
func PatientScope(t time.Time) string {
	return fmt.Sprintf("patient:%d", t.Year())
}

// BillScope returns the counter scope for bill numbers issued in the month
// of t.
func BillScope(t time.Time) string {
	return fmt.Sprintf("bill:%04d-%02d", t.Year(), int(t.Month()))
}

// FormatPatientID renders a serial as PAT<year><NNNN>, e.g. PAT20260001.
func FormatPatientID(t time.Time, serial int64) string {
	return fmt.Sprintf("PAT%d%04d", t.Year(), serial)
}

// FormatBillNumber renders a serial as BILL<year><month><NNNN>,
// e.g. BILL2026080001.
func FormatBillNumber(t time.Time, serial int64) string {
	return fmt.Sprintf("BILL%04d%02d%04d", t.Year(), int(t.Month()), serial)
}
