package department

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("department not found")

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	GetByName(ctx context.Context, name string) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Update(ctx context.Context, d *Department) error
	UpdateCounts(ctx context.Context, id uuid.UUID, total, occupied, available, maintenance int) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// StatusGroup is a per-status slice of a department's beds.
type StatusGroup struct {
	Status     string   `json:"status"`
	Count      int      `json:"count"`
	BedNumbers []string `json:"beds"`
}

// TypeGroup is a per-bed-type tally.
type TypeGroup struct {
	BedType string `json:"bedType"`
	Count   int    `json:"count"`
}

// BedDirectory is what the department service needs from the bed store.
// The bed package implements it; defining it here keeps the dependency
// one-directional.
type BedDirectory interface {
	CountByStatus(ctx context.Context, departmentID uuid.UUID) (BedCounts, error)
	StatusBreakdown(ctx context.Context, departmentID uuid.UUID) ([]StatusGroup, error)
	TypeBreakdown(ctx context.Context, departmentID uuid.UUID) ([]TypeGroup, error)
	CountOccupied(ctx context.Context, departmentID uuid.UUID) (int, error)
	DeactivateByDepartment(ctx context.Context, departmentID uuid.UUID) error
	ProvisionGrid(ctx context.Context, departmentID uuid.UUID, departmentName string, totalBeds int) error
}
