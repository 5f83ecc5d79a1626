package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
)

type Service struct {
	repo      Repository
	billing   BillingDirectory
	publisher events.Publisher
}

func NewService(repo Repository, billing BillingDirectory, publisher events.Publisher) *Service {
	return &Service{repo: repo, billing: billing, publisher: publisher}
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Patient, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Validation("invalid patient status filter")
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("PATIENT_NOT_FOUND", "Patient not found")
	}
	return p, err
}

// PatientSummary resolves display info for other services (bed occupancy,
// event payloads).
func (s *Service) PatientSummary(ctx context.Context, id uuid.UUID) (string, string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return p.FullName(), p.Code, nil
}

// Update applies demographic and clinical edits. Admission structure fields
// other than diagnosis and treatment plan are managed by the admission flow.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd *Patient) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != "" {
		p.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		p.LastName = upd.LastName
	}
	if upd.ContactNumber != "" {
		p.ContactNumber = upd.ContactNumber
	}
	if upd.Email != "" {
		p.Email = upd.Email
	}
	if upd.Address != (Address{}) {
		p.Address = upd.Address
	}
	if upd.EmergencyContact != (EmergencyContact{}) {
		p.EmergencyContact = upd.EmergencyContact
	}
	if upd.MedicalHistory.BloodType != "" || len(upd.MedicalHistory.Allergies) > 0 ||
		len(upd.MedicalHistory.ChronicConditions) > 0 || len(upd.MedicalHistory.Medications) > 0 {
		p.MedicalHistory = upd.MedicalHistory
	}
	if upd.Insurance != (Insurance{}) {
		p.Insurance = upd.Insurance
	}
	if upd.Admission.Diagnosis != "" {
		p.Admission.Diagnosis = upd.Admission.Diagnosis
	}
	if upd.Admission.TreatmentPlan != "" {
		p.Admission.TreatmentPlan = upd.Admission.TreatmentPlan
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	if evt, err := events.New(events.TypePatientUpdated, events.TopicPatients, map[string]interface{}{
		"patientId": p.ID,
		"name":      p.FullName(),
		"code":      p.Code,
	}); err == nil {
		_ = s.publisher.Publish(ctx, evt)
	}
	return p, nil
}

// History is the admission plus billing view of a patient.
type History struct {
	Patient struct {
		ID            uuid.UUID `json:"id"`
		Code          string    `json:"patientId"`
		Name          string    `json:"name"`
		Age           int       `json:"age"`
		Gender        string    `json:"gender"`
		ContactNumber string    `json:"contactNumber"`
	} `json:"patient"`
	Admission      Admission     `json:"admission"`
	BillingHistory []BillSummary `json:"billingHistory"`
	TotalBills     int           `json:"totalBills"`
	TotalAmount    float64       `json:"totalAmount"`
	TotalPaid      float64       `json:"totalPaid"`
}

func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) (*History, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	bills, err := s.billing.BillsForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	h := &History{Admission: p.Admission, BillingHistory: bills, TotalBills: len(bills)}
	h.Patient.ID = p.ID
	h.Patient.Code = p.Code
	h.Patient.Name = p.FullName()
	h.Patient.Age = p.Age(time.Now().UTC())
	h.Patient.Gender = p.Gender
	h.Patient.ContactNumber = p.ContactNumber
	for _, b := range bills {
		h.TotalAmount += b.NetAmount
		h.TotalPaid += b.TotalPaid
	}
	return h, nil
}

// StatsSummary tallies active patients by status and admitted patients by
// department.
type StatsSummary struct {
	Summary struct {
		Total       int `json:"total"`
		Admitted    int `json:"admitted"`
		Discharged  int `json:"discharged"`
		Transferred int `json:"transferred"`
	} `json:"summary"`
	DepartmentStats []DepartmentCount `json:"departmentStats"`
	Timestamp       time.Time         `json:"timestamp"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

func (s *Service) GetStats(ctx context.Context) (*StatsSummary, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.repo.CountAdmittedByDepartment(ctx)
	if err != nil {
		return nil, err
	}

	st := &StatsSummary{Timestamp: time.Now().UTC()}
	st.Summary.Admitted = byStatus[StatusAdmitted]
	st.Summary.Discharged = byStatus[StatusDischarged]
	st.Summary.Transferred = byStatus[StatusTransferred]
	st.Summary.Total = st.Summary.Admitted + st.Summary.Discharged + st.Summary.Transferred

	st.DepartmentStats = make([]DepartmentCount, 0, len(byDepartment))
	for name, n := range byDepartment {
		st.DepartmentStats = append(st.DepartmentStats, DepartmentCount{Department: name, Count: n})
	}
	return st, nil
}
