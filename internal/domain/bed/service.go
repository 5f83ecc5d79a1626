package bed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/domain/department"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
)

// DepartmentService is the slice of the department service the bed service
// uses: existence checks and count refreshes after bed-state changes.
type DepartmentService interface {
	Get(ctx context.Context, id uuid.UUID) (*department.Department, error)
	RefreshBedCounts(ctx context.Context, id uuid.UUID) (*department.Department, error)
}

// PatientDirectory resolves patient display info for occupancy operations.
// The patient service implements it.
type PatientDirectory interface {
	PatientSummary(ctx context.Context, id uuid.UUID) (name string, code string, err error)
}

type Service struct {
	repo        Repository
	departments DepartmentService
	patients    PatientDirectory
	publisher   events.Publisher
}

func NewService(repo Repository, departments DepartmentService, patients PatientDirectory, publisher events.Publisher) *Service {
	return &Service{repo: repo, departments: departments, patients: patients, publisher: publisher}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Bed, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("BED_NOT_FOUND", "Bed not found")
	}
	return b, err
}

// Create adds a bed to a department, refusing duplicate numbers and
// already-taken grid positions.
func (s *Service) Create(ctx context.Context, b *Bed) (*Bed, error) {
	if b.Number == "" {
		return nil, apperr.Validation("Bed number is required")
	}
	if b.Position.Row < 1 || b.Position.Column < 1 {
		return nil, apperr.Validation("Position row and column must be at least 1")
	}
	if b.BedType == "" {
		b.BedType = TypeStandard
	}
	if !ValidType(b.BedType) {
		return nil, apperr.Validation("Invalid bed type")
	}

	dep, err := s.departments.Get(ctx, b.DepartmentID)
	if err != nil {
		return nil, err
	}
	b.DepartmentName = dep.Name

	if _, err := s.repo.GetByNumber(ctx, b.DepartmentID, b.Number); err == nil {
		return nil, apperr.Conflict("BED_EXISTS", "Bed number already exists in this department")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByPosition(ctx, b.DepartmentID, b.Position.Row, b.Position.Column); err == nil {
		return nil, apperr.Conflict("POSITION_OCCUPIED", "Position already occupied")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	b.Status = StatusAvailable
	if b.DailyRate == 0 {
		b.DailyRate = DefaultDailyRate(b.BedType)
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.afterBedChange(ctx, b.DepartmentID)
	s.publish(ctx, events.TypeBedCreated, events.TopicBeds, b)
	return b, nil
}

// UpdateStatus transitions a bed between available, maintenance and
// cleaning. Marking a bed occupied directly requires a patient already
// assigned; occupancy normally flows through Occupy.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes string) (*Bed, error) {
	if !ValidStatus(status) {
		return nil, apperr.Validation("Invalid bed status")
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == StatusOccupied && b.CurrentPatientID == nil {
		return nil, apperr.Conflict("NO_PATIENT_ASSIGNED", "Cannot mark bed as occupied without a patient")
	}

	oldStatus := b.Status
	b.Status = status
	if notes != "" {
		b.Notes = notes
	}

	now := time.Now().UTC()
	switch status {
	case StatusMaintenance:
		b.CurrentPatientID = nil
		b.LastMaintenance = &now
	case StatusCleaning, StatusAvailable:
		b.CurrentPatientID = nil
		b.LastCleaned = &now
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.afterBedChange(ctx, b.DepartmentID)
	s.publish(ctx, events.TypeBedStatusUpdated, events.TopicBeds, map[string]interface{}{
		"bedId":        b.ID,
		"bedNumber":    b.Number,
		"oldStatus":    oldStatus,
		"newStatus":    status,
		"departmentId": b.DepartmentID,
	})
	return b, nil
}

// Occupy assigns a patient to an available bed. The repository performs a
// conditional update, so a concurrent occupation of the same bed loses with
// BED_NOT_AVAILABLE rather than double-booking.
func (s *Service) Occupy(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	b, err := s.Get(ctx, bedID)
	if err != nil {
		return nil, err
	}

	name, code, err := s.patients.PatientSummary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByPatient(ctx, patientID); err == nil {
		return nil, apperr.Conflict("PATIENT_ALREADY_ASSIGNED", "Patient is already assigned to another bed").
			WithMeta("currentBed", existing.Number)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ok, err := s.repo.Occupy(ctx, bedID, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("BED_NOT_AVAILABLE", "Bed is not available").
			WithMeta("currentStatus", b.Status)
	}

	b, err = s.Get(ctx, bedID)
	if err != nil {
		return nil, err
	}

	s.afterBedChange(ctx, b.DepartmentID)
	s.publish(ctx, events.TypeBedOccupied, events.TopicBeds, map[string]interface{}{
		"bedId":     b.ID,
		"bedNumber": b.Number,
		"patient": map[string]interface{}{
			"id":        patientID,
			"name":      name,
			"patientId": code,
		},
		"departmentId": b.DepartmentID,
	})
	return b, nil
}

// Release frees an occupied bed and stamps it cleaned.
func (s *Service) Release(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	b, err := s.Get(ctx, bedID)
	if err != nil {
		return nil, err
	}

	released := b.CurrentPatientID

	ok, err := s.repo.Release(ctx, bedID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("BED_NOT_OCCUPIED", "Bed is not occupied").
			WithMeta("currentStatus", b.Status)
	}

	b, err = s.Get(ctx, bedID)
	if err != nil {
		return nil, err
	}

	s.afterBedChange(ctx, b.DepartmentID)
	payload := map[string]interface{}{
		"bedId":        b.ID,
		"bedNumber":    b.Number,
		"departmentId": b.DepartmentID,
	}
	if released != nil {
		if name, code, err := s.patients.PatientSummary(ctx, *released); err == nil {
			payload["releasedPatient"] = map[string]interface{}{
				"id":        *released,
				"name":      name,
				"patientId": code,
			}
		}
	}
	s.publish(ctx, events.TypeBedReleased, events.TopicBeds, payload)
	return b, nil
}

// Delete soft-deletes a bed. Occupied beds cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == StatusOccupied {
		return apperr.Conflict("BED_OCCUPIED", "Cannot delete occupied bed")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.afterBedChange(ctx, b.DepartmentID)
	s.publish(ctx, events.TypeBedDeleted, events.TopicBeds, map[string]interface{}{
		"bedId":        b.ID,
		"departmentId": b.DepartmentID,
	})
	return nil
}

// afterBedChange re-derives the owning department's counters and announces
// the new occupancy. Failures here are logged by the publisher path but do
// not undo the bed change.
func (s *Service) afterBedChange(ctx context.Context, departmentID uuid.UUID) {
	dep, err := s.departments.RefreshBedCounts(ctx, departmentID)
	if err != nil {
		return
	}
	s.publish(ctx, events.TypeDepartmentUpdated, events.TopicDepartments, department.View(dep))
}

func (s *Service) publish(ctx context.Context, eventType, topic string, payload interface{}) {
	evt, err := events.New(eventType, topic, payload)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, evt)
}
