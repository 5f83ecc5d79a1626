package department

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/db"
	"github.com/wardflow/wardflow/internal/platform/events"
)

type Service struct {
	repo      Repository
	beds      BedDirectory
	tx        db.TxRunner
	publisher events.Publisher
}

func NewService(repo Repository, beds BedDirectory, tx db.TxRunner, publisher events.Publisher) *Service {
	return &Service{repo: repo, beds: beds, tx: tx, publisher: publisher}
}

// List returns active departments with bed counts refreshed from the beds
// table, so dashboard reads never show stale occupancy.
func (s *Service) List(ctx context.Context) ([]*Department, error) {
	deps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deps {
		if err := s.refresh(ctx, d); err != nil {
			return nil, err
		}
	}
	return deps, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("DEPARTMENT_NOT_FOUND", "Department not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Create provisions a department together with its bed grid in one
// transaction.
func (s *Service) Create(ctx context.Context, d *Department) (*Department, error) {
	if d.Name == "" {
		return nil, apperr.Validation("Department name is required")
	}
	if d.TotalBeds < 1 || d.TotalBeds > 100 {
		return nil, apperr.Validation("Total beds must be between 1 and 100")
	}
	if _, err := s.repo.GetByName(ctx, d.Name); err == nil {
		return nil, apperr.Conflict("DEPARTMENT_EXISTS", "Department already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d.AvailableBeds = d.TotalBeds
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		return s.beds.ProvisionGrid(ctx, d.ID, d.Name, d.TotalBeds)
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, d)
	return d, nil
}

// Update applies the mutable descriptive fields. Bed counts are not
// updatable through this path.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd *Department) (*Department, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Description != "" {
		d.Description = upd.Description
	}
	if upd.HeadOfDepartment != "" {
		d.HeadOfDepartment = upd.HeadOfDepartment
	}
	if upd.ContactNumber != "" {
		d.ContactNumber = upd.ContactNumber
	}
	if upd.Location != (Location{}) {
		d.Location = upd.Location
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, d)
	return d, nil
}

// Delete soft-deletes a department and its beds. Blocked while any bed in
// the department is occupied.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("DEPARTMENT_NOT_FOUND", "Department not found")
	}
	if err != nil {
		return err
	}

	occupied, err := s.beds.CountOccupied(ctx, d.ID)
	if err != nil {
		return err
	}
	if occupied > 0 {
		return apperr.Conflict("DEPARTMENT_HAS_OCCUPIED_BEDS",
			"Cannot delete department with occupied beds").
			WithMeta("occupiedBeds", occupied)
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Deactivate(ctx, d.ID); err != nil {
			return err
		}
		return s.beds.DeactivateByDepartment(ctx, d.ID)
	})
}

// Stats reports a department's availability summary plus per-status and
// per-type bed breakdowns.
type Stats struct {
	Department struct {
		ID                     uuid.UUID `json:"id"`
		Name                   string    `json:"name"`
		TotalBeds              int       `json:"totalBeds"`
		AvailabilityPercentage int       `json:"availabilityPercentage"`
		AvailabilityStatus     string    `json:"availabilityStatus"`
	} `json:"department"`
	BedStats     []StatusGroup `json:"bedStats"`
	BedTypeStats []TypeGroup   `json:"bedTypeStats"`
}

func (s *Service) GetStats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.beds.StatusBreakdown(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	byType, err := s.beds.TypeBreakdown(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	st := &Stats{BedStats: byStatus, BedTypeStats: byType}
	st.Department.ID = d.ID
	st.Department.Name = d.Name
	st.Department.TotalBeds = d.TotalBeds
	st.Department.AvailabilityPercentage = d.AvailabilityPercentage()
	st.Department.AvailabilityStatus = d.AvailabilityStatus()
	return st, nil
}

// RefreshBedCounts re-derives the denormalized counters from the beds table
// and persists them. Bed-state-changing operations call this; HTTP callers
// never have to.
func (s *Service) RefreshBedCounts(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("DEPARTMENT_NOT_FOUND", "Department not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) refresh(ctx context.Context, d *Department) error {
	counts, err := s.beds.CountByStatus(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("counting beds for %s: %w", d.Name, err)
	}
	d.ApplyBedCounts(counts)
	return s.repo.UpdateCounts(ctx, d.ID, d.TotalBeds, d.OccupiedBeds, d.AvailableBeds, d.MaintenanceBeds)
}

func (s *Service) publishUpdated(ctx context.Context, d *Department) {
	evt, err := events.New(events.TypeDepartmentUpdated, events.TopicDepartments, View(d))
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, evt)
}
