package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Patient, error) {
	for _, p := range m.patients {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	var matched []*Patient
	for _, p := range m.patients {
		if !p.IsActive {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.DepartmentName != "" && p.Admission.DepartmentName != f.DepartmentName {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.FirstName), s) &&
				!strings.Contains(strings.ToLower(p.LastName), s) &&
				!strings.Contains(strings.ToLower(p.Code), s) &&
				!strings.Contains(p.ContactNumber, f.Search) {
				continue
			}
		}
		matched = append(matched, p)
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, p := range m.patients {
		if p.IsActive {
			counts[p.Status]++
		}
	}
	return counts, nil
}

func (m *mockRepo) CountAdmittedByDepartment(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, p := range m.patients {
		if p.IsActive && p.Status == StatusAdmitted {
			counts[p.Admission.DepartmentName]++
		}
	}
	return counts, nil
}

type mockBilling struct {
	bills map[uuid.UUID][]BillSummary
}

func (m *mockBilling) BillsForPatient(_ context.Context, patientID uuid.UUID) ([]BillSummary, error) {
	return m.bills[patientID], nil
}

func addPatient(repo *mockRepo, firstName, lastName, code string, status Status, dep string) *Patient {
	p := &Patient{
		Code:          code,
		FirstName:     firstName,
		LastName:      lastName,
		DateOfBirth:   time.Date(1985, time.March, 2, 0, 0, 0, 0, time.UTC),
		Gender:        "Female",
		ContactNumber: "+91 9000000001",
		Status:        status,
		Admission: Admission{
			AdmissionDate:  time.Now().UTC().Add(-48 * time.Hour),
			DepartmentName: dep,
		},
	}
	repo.Create(context.Background(), p)
	return p
}

func TestGetPatient_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), &mockBilling{}, events.NopPublisher{})

	_, err := svc.Get(context.Background(), uuid.New())
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "PATIENT_NOT_FOUND" {
		t.Fatalf("expected PATIENT_NOT_FOUND, got %v", err)
	}
}

func TestPatientSummary(t *testing.T) {
	repo := newMockRepo()
	p := addPatient(repo, "Asha", "Verma", "PAT20260001", StatusAdmitted, "General")
	svc := NewService(repo, &mockBilling{}, events.NopPublisher{})

	name, code, err := svc.PatientSummary(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("PatientSummary: %v", err)
	}
	if name != "Asha Verma" || code != "PAT20260001" {
		t.Errorf("summary = %q %q", name, code)
	}
}

func TestUpdatePatient(t *testing.T) {
	repo := newMockRepo()
	p := addPatient(repo, "Asha", "Verma", "PAT20260001", StatusAdmitted, "General")
	svc := NewService(repo, &mockBilling{}, events.NopPublisher{})

	got, err := svc.Update(context.Background(), p.ID, &Patient{
		ContactNumber: "+91 9111111111",
		Admission:     Admission{Diagnosis: "dengue fever"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ContactNumber != "+91 9111111111" {
		t.Errorf("contact = %q", got.ContactNumber)
	}
	if got.Admission.Diagnosis != "dengue fever" {
		t.Errorf("diagnosis = %q", got.Admission.Diagnosis)
	}
	if got.FirstName != "Asha" {
		t.Error("unset fields must be preserved")
	}
}

func TestListPatients_Filters(t *testing.T) {
	repo := newMockRepo()
	addPatient(repo, "Asha", "Verma", "PAT20260001", StatusAdmitted, "General")
	addPatient(repo, "Ravi", "Iyer", "PAT20260002", StatusAdmitted, "ICU")
	addPatient(repo, "Meena", "Shah", "PAT20260003", StatusDischarged, "General")
	svc := NewService(repo, &mockBilling{}, events.NopPublisher{})

	got, total, err := svc.List(context.Background(), Filter{Status: StatusAdmitted}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("admitted filter: total=%d len=%d, want 2", total, len(got))
	}

	got, total, err = svc.List(context.Background(), Filter{DepartmentName: "ICU"}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || got[0].Code != "PAT20260002" {
		t.Errorf("department filter returned %d, %v", total, got)
	}

	_, total, err = svc.List(context.Background(), Filter{Search: "meena"}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Errorf("search filter total = %d, want 1", total)
	}
}

func TestGetHistory(t *testing.T) {
	repo := newMockRepo()
	p := addPatient(repo, "Asha", "Verma", "PAT20260001", StatusAdmitted, "General")
	billing := &mockBilling{bills: map[uuid.UUID][]BillSummary{
		p.ID: {
			{BillNumber: "BILL2026080001", NetAmount: 5000, TotalPaid: 2000},
			{BillNumber: "BILL2026070003", NetAmount: 3000, TotalPaid: 3000},
		},
	}}
	svc := NewService(repo, billing, events.NopPublisher{})

	h, err := svc.GetHistory(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if h.TotalBills != 2 {
		t.Errorf("total bills = %d, want 2", h.TotalBills)
	}
	if h.TotalAmount != 8000 {
		t.Errorf("total amount = %v, want 8000", h.TotalAmount)
	}
	if h.TotalPaid != 5000 {
		t.Errorf("total paid = %v, want 5000", h.TotalPaid)
	}
	if h.Patient.Name != "Asha Verma" {
		t.Errorf("patient name = %q", h.Patient.Name)
	}
}

func TestGetStats(t *testing.T) {
	repo := newMockRepo()
	addPatient(repo, "Asha", "Verma", "PAT20260001", StatusAdmitted, "General")
	addPatient(repo, "Ravi", "Iyer", "PAT20260002", StatusAdmitted, "ICU")
	addPatient(repo, "Meena", "Shah", "PAT20260003", StatusDischarged, "General")
	svc := NewService(repo, &mockBilling{}, events.NopPublisher{})

	st, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Summary.Total != 3 || st.Summary.Admitted != 2 || st.Summary.Discharged != 1 {
		t.Errorf("summary = %+v", st.Summary)
	}
	if len(st.DepartmentStats) != 2 {
		t.Errorf("department stats = %+v", st.DepartmentStats)
	}
}
