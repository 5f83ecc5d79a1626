package patient

import (
	"testing"
	"time"
)

func TestFullName(t *testing.T) {
	p := &Patient{FirstName: "Asha", LastName: "Verma"}
	if got := p.FullName(); got != "Asha Verma" {
		t.Errorf("full name = %q", got)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(1990, time.August, 29, 0, 0, 0, 0, time.UTC), 36},
		{time.Date(1990, time.August, 30, 0, 0, 0, 0, time.UTC), 35}, // birthday tomorrow
		{time.Date(1990, time.September, 1, 0, 0, 0, 0, time.UTC), 35},
		{time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC), 36},
	}
	for _, tc := range cases {
		p := &Patient{DateOfBirth: tc.dob}
		if got := p.Age(now); got != tc.want {
			t.Errorf("age for dob %s = %d, want %d", tc.dob.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestAdmissionDuration(t *testing.T) {
	admitted := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.August, 23, 9, 0, 0, 0, time.UTC)

	p := &Patient{Admission: Admission{AdmissionDate: admitted}}
	if got := p.AdmissionDuration(now); got != 3 {
		t.Errorf("ongoing duration = %d, want 3 (partial days round up)", got)
	}

	discharge := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	p.Admission.DischargeDate = &discharge
	if got := p.AdmissionDuration(now); got != 5 {
		t.Errorf("discharged duration = %d, want 5", got)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusAdmitted, StatusDischarged, StatusTransferred} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if ValidStatus("waitlisted") {
		t.Error("unknown status should be invalid")
	}
}
