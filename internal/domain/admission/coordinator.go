// Package admission orchestrates the admit and discharge flows, which cut
// across patients, beds, departments and billing. Each flow runs its writes
// inside one transaction so a failure partway never leaves a patient without
// a bed or a bed pointing at a missing patient.
package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/domain/bed"
	"github.com/wardflow/wardflow/internal/domain/billing"
	"github.com/wardflow/wardflow/internal/domain/department"
	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/db"
	"github.com/wardflow/wardflow/internal/platform/events"
	"github.com/wardflow/wardflow/internal/platform/sequence"
)

// DepartmentService is the slice of the department service the flows need.
type DepartmentService interface {
	Get(ctx context.Context, id uuid.UUID) (*department.Department, error)
	RefreshBedCounts(ctx context.Context, id uuid.UUID) (*department.Department, error)
}

// BillingService is the slice of the billing service the flows need.
type BillingService interface {
	Open(ctx context.Context, in billing.OpenBillInput) (*billing.Bill, error)
	OpenByPatient(ctx context.Context, patientID uuid.UUID) (*billing.Bill, error)
	CloseForDischarge(ctx context.Context, id uuid.UUID, dischargeDate time.Time, notes string) (*billing.Bill, error)
}

type Coordinator struct {
	departments DepartmentService
	beds        bed.Repository
	patients    patient.Repository
	billing     BillingService
	seq         sequence.Sequencer
	tx          db.TxRunner
	publisher   events.Publisher
	now         func() time.Time
}

func NewCoordinator(
	departments DepartmentService,
	beds bed.Repository,
	patients patient.Repository,
	billingSvc BillingService,
	seq sequence.Sequencer,
	tx db.TxRunner,
	publisher events.Publisher,
) *Coordinator {
	return &Coordinator{
		departments: departments,
		beds:        beds,
		patients:    patients,
		billing:     billingSvc,
		seq:         seq,
		tx:          tx,
		publisher:   publisher,
		now:         time.Now,
	}
}

// AdmitInput is the full admission request.
type AdmitInput struct {
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	DateOfBirth      time.Time                `json:"dateOfBirth"`
	Gender           string                   `json:"gender"`
	ContactNumber    string                   `json:"contactNumber"`
	Email            string                   `json:"email"`
	Address          patient.Address          `json:"address"`
	EmergencyContact patient.EmergencyContact `json:"emergencyContact"`
	MedicalHistory   patient.MedicalHistory   `json:"medicalHistory"`
	Insurance        patient.Insurance        `json:"insurance"`

	DepartmentID       uuid.UUID `json:"departmentId"`
	BedID              uuid.UUID `json:"bedId"`
	ReasonForAdmission string    `json:"reasonForAdmission"`
	Diagnosis          string    `json:"diagnosis"`
	TreatmentPlan      string    `json:"treatmentPlan"`
}

// AdmitResult is everything the admit flow produced.
type AdmitResult struct {
	Patient *patient.Patient
	Bed     *bed.Bed
	Bill    *billing.Bill
}

// Admit registers a new patient, claims the requested bed and opens the
// initial bill, all in one transaction. The bed claim is conditional on the
// bed still being available, so two concurrent admissions to the same bed
// cannot both succeed.
func (c *Coordinator) Admit(ctx context.Context, in AdmitInput, admittedBy string) (*AdmitResult, error) {
	if in.FirstName == "" || in.LastName == "" || in.ContactNumber == "" {
		return nil, apperr.Validation("firstName, lastName and contactNumber are required")
	}
	if in.DateOfBirth.IsZero() {
		return nil, apperr.Validation("dateOfBirth is required")
	}
	if in.Gender == "" {
		return nil, apperr.Validation("gender is required")
	}
	if in.ReasonForAdmission == "" {
		return nil, apperr.Validation("reasonForAdmission is required")
	}

	dep, err := c.departments.Get(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}

	b, err := c.beds.GetByID(ctx, in.BedID)
	if errors.Is(err, bed.ErrNotFound) {
		return nil, apperr.NotFound("BED_NOT_FOUND", "Bed not found")
	}
	if err != nil {
		return nil, err
	}
	if !b.IsAvailable() {
		return nil, apperr.Conflict("BED_NOT_AVAILABLE", "Bed is not available").
			WithMeta("bedStatus", b.Status)
	}
	if b.DepartmentID != in.DepartmentID {
		return nil, apperr.Conflict("BED_DEPARTMENT_MISMATCH", "Bed does not belong to selected department")
	}

	now := c.now()
	result := &AdmitResult{Bed: b}

	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		serial, err := c.seq.Next(ctx, sequence.PatientScope(now))
		if err != nil {
			return err
		}

		p := &patient.Patient{
			ID:               uuid.New(),
			Code:             sequence.FormatPatientID(now, serial),
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			DateOfBirth:      in.DateOfBirth,
			Gender:           in.Gender,
			ContactNumber:    in.ContactNumber,
			Email:            in.Email,
			Address:          in.Address,
			EmergencyContact: in.EmergencyContact,
			MedicalHistory:   in.MedicalHistory,
			Insurance:        in.Insurance,
			Admission: patient.Admission{
				AdmissionDate:      now,
				DepartmentID:       dep.ID,
				DepartmentName:     dep.Name,
				AssignedBedID:      b.ID,
				AdmittingDoctor:    admittedBy,
				ReasonForAdmission: in.ReasonForAdmission,
				Diagnosis:          in.Diagnosis,
				TreatmentPlan:      in.TreatmentPlan,
			},
			Status:   patient.StatusAdmitted,
			IsActive: true,
		}
		if err := c.patients.Create(ctx, p); err != nil {
			return err
		}

		occupied, err := c.beds.Occupy(ctx, b.ID, p.ID)
		if err != nil {
			return err
		}
		if !occupied {
			return apperr.Conflict("BED_NOT_AVAILABLE", "Bed is not available").
				WithMeta("bedStatus", bed.StatusOccupied)
		}

		bill, err := c.billing.Open(ctx, billing.OpenBillInput{
			PatientID:      p.ID,
			PatientName:    p.FullName(),
			PatientCode:    p.Code,
			DepartmentID:   dep.ID,
			DepartmentName: dep.Name,
			AdmissionDate:  now,
			DailyRate:      b.DailyRate,
			GeneratedBy:    admittedBy,
		})
		if err != nil {
			return err
		}

		result.Patient = p
		result.Bill = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	p := result.Patient
	c.publish(ctx, events.TypePatientAdmitted, events.TopicPatients, map[string]interface{}{
		"patient": map[string]interface{}{
			"id":         p.ID,
			"name":       p.FullName(),
			"patientId":  p.Code,
			"department": dep.Name,
			"bedNumber":  b.Number,
		},
		"bedId":        b.ID,
		"departmentId": dep.ID,
	})
	c.publish(ctx, events.TypeBedOccupied, events.TopicBeds, map[string]interface{}{
		"bedId":     b.ID,
		"bedNumber": b.Number,
		"patient": map[string]interface{}{
			"id":        p.ID,
			"name":      p.FullName(),
			"patientId": p.Code,
		},
		"departmentId": dep.ID,
	})
	c.refreshDepartment(ctx, dep.ID)
	return result, nil
}

// DischargeInput is the discharge request.
type DischargeInput struct {
	DischargeDate    *time.Time `json:"dischargeDate"`
	DischargeSummary string     `json:"dischargeSummary"`
}

// DischargeResult is everything the discharge flow produced.
type DischargeResult struct {
	Patient *patient.Patient
	Bill    *billing.Bill
}

// Discharge releases the patient's bed and closes the stay. It refuses while
// any balance is outstanding.
func (c *Coordinator) Discharge(ctx context.Context, patientID uuid.UUID, in DischargeInput) (*DischargeResult, error) {
	p, err := c.patients.GetByID(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, apperr.NotFound("PATIENT_NOT_FOUND", "Patient not found")
	}
	if err != nil {
		return nil, err
	}
	if p.Status != patient.StatusAdmitted {
		return nil, apperr.Conflict("PATIENT_NOT_ADMITTED", "Patient is not currently admitted").
			WithMeta("currentStatus", p.Status)
	}

	bill, err := c.billing.OpenByPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if bill.BalanceAmount > 0 {
		return nil, apperr.Conflict("PENDING_PAYMENT", "Patient cannot be discharged until bill is fully paid").
			WithMeta("balanceAmount", bill.BalanceAmount)
	}

	discharge := c.now()
	if in.DischargeDate != nil {
		discharge = *in.DischargeDate
	}

	result := &DischargeResult{}
	err = c.tx.RunInTx(ctx, func(ctx context.Context) error {
		p.Status = patient.StatusDischarged
		p.Admission.DischargeDate = &discharge
		if in.DischargeSummary != "" {
			if p.Admission.TreatmentPlan != "" {
				p.Admission.TreatmentPlan += "\n\n"
			}
			p.Admission.TreatmentPlan += "Discharge Summary: " + in.DischargeSummary
		}
		if err := c.patients.Update(ctx, p); err != nil {
			return err
		}

		if p.Admission.AssignedBedID != uuid.Nil {
			if _, err := c.beds.Release(ctx, p.Admission.AssignedBedID); err != nil {
				return err
			}
		}

		closed, err := c.billing.CloseForDischarge(ctx, bill.ID, discharge, in.DischargeSummary)
		if err != nil {
			return err
		}
		result.Patient = p
		result.Bill = closed
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, events.TypePatientDischarged, events.TopicPatients, map[string]interface{}{
		"patient": map[string]interface{}{
			"id":         p.ID,
			"name":       p.FullName(),
			"patientId":  p.Code,
			"department": p.Admission.DepartmentName,
		},
		"bedId":         p.Admission.AssignedBedID,
		"departmentId":  p.Admission.DepartmentID,
		"dischargeDate": discharge,
	})
	if p.Admission.AssignedBedID != uuid.Nil {
		c.publish(ctx, events.TypeBedReleased, events.TopicBeds, map[string]interface{}{
			"bedId": p.Admission.AssignedBedID,
			"releasedPatient": map[string]interface{}{
				"id":        p.ID,
				"name":      p.FullName(),
				"patientId": p.Code,
			},
			"departmentId": p.Admission.DepartmentID,
		})
	}
	c.refreshDepartment(ctx, p.Admission.DepartmentID)
	return result, nil
}

// refreshDepartment re-derives the department's counters and announces the
// new occupancy. The admission itself has already committed.
func (c *Coordinator) refreshDepartment(ctx context.Context, departmentID uuid.UUID) {
	dep, err := c.departments.RefreshBedCounts(ctx, departmentID)
	if err != nil {
		return
	}
	c.publish(ctx, events.TypeDepartmentUpdated, events.TopicDepartments, department.View(dep))
}

func (c *Coordinator) publish(ctx context.Context, eventType, topic string, payload interface{}) {
	if c.publisher == nil {
		return
	}
	evt, err := events.New(eventType, topic, payload)
	if err != nil {
		return
	}
	_ = c.publisher.Publish(ctx, evt)
}
