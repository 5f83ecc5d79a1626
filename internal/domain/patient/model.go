package patient

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the patient's lifecycle state.
type Status string

const (
	StatusAdmitted    Status = "admitted"
	StatusDischarged  Status = "discharged"
	StatusTransferred Status = "transferred"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusAdmitted, StatusDischarged, StatusTransferred:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type EmergencyContact struct {
	Name          string `json:"name"`
	Relationship  string `json:"relationship"`
	ContactNumber string `json:"contactNumber"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

type MedicalHistory struct {
	Allergies         []string     `json:"allergies,omitempty"`
	ChronicConditions []string     `json:"chronicConditions,omitempty"`
	Medications       []Medication `json:"medications,omitempty"`
	BloodType         string       `json:"bloodType,omitempty"`
}

type Insurance struct {
	Provider       string  `json:"provider,omitempty"`
	PolicyNumber   string  `json:"policyNumber,omitempty"`
	CoverageAmount float64 `json:"coverageAmount,omitempty"`
}

// Admission is the embedded snapshot of the patient's current stay.
type Admission struct {
	AdmissionDate      time.Time  `json:"admissionDate"`
	DischargeDate      *time.Time `json:"dischargeDate,omitempty"`
	DepartmentID       uuid.UUID  `json:"departmentId"`
	DepartmentName     string     `json:"departmentName"`
	AssignedBedID      uuid.UUID  `json:"assignedBedId"`
	AdmittingDoctor    string     `json:"admittingDoctor"`
	ReasonForAdmission string     `json:"reasonForAdmission"`
	Diagnosis          string     `json:"diagnosis,omitempty"`
	TreatmentPlan      string     `json:"treatmentPlan,omitempty"`
}

// Patient is an admitted or previously admitted person. Code is the
// human-readable identifier, unique across years (PAT20260001).
type Patient struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"patientId"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	DateOfBirth      time.Time        `json:"dateOfBirth"`
	Gender           string           `json:"gender"`
	ContactNumber    string           `json:"contactNumber"`
	Email            string           `json:"email,omitempty"`
	Address          Address          `json:"address"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	MedicalHistory   MedicalHistory   `json:"medicalHistory"`
	Insurance        Insurance        `json:"insurance"`
	Admission        Admission        `json:"admission"`
	Status           Status           `json:"status"`
	IsActive         bool             `json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns completed years at the given instant.
func (p *Patient) Age(now time.Time) int {
	age := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		age--
	}
	return age
}

// AdmissionDuration returns the stay length in days, rounded up, using the
// discharge date when set and now otherwise.
func (p *Patient) AdmissionDuration(now time.Time) int {
	end := now
	if p.Admission.DischargeDate != nil {
		end = *p.Admission.DischargeDate
	}
	hours := end.Sub(p.Admission.AdmissionDate).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(math.Ceil(hours / 24))
}

// patientView adds the derived fields to the serialized form.
type patientView struct {
	*Patient
	FullName          string `json:"fullName"`
	Age               int    `json:"age"`
	AdmissionDuration int    `json:"admissionDuration"`
}

func View(p *Patient) interface{} {
	now := time.Now().UTC()
	return patientView{
		Patient:           p,
		FullName:          p.FullName(),
		Age:               p.Age(now),
		AdmissionDuration: p.AdmissionDuration(now),
	}
}

func Views(ps []*Patient) []interface{} {
	out := make([]interface{}, len(ps))
	for i, p := range ps {
		out[i] = View(p)
	}
	return out
}
