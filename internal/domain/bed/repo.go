package bed

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("bed not found")

// Filter narrows bed listings.
type Filter struct {
	DepartmentID   *uuid.UUID
	DepartmentName string
	Status         Status
}

type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	GetByNumber(ctx context.Context, departmentID uuid.UUID, number string) (*Bed, error)
	GetByPosition(ctx context.Context, departmentID uuid.UUID, row, column int) (*Bed, error)
	List(ctx context.Context, f Filter) ([]*Bed, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Bed, error)
	Update(ctx context.Context, b *Bed) error

	// Occupy atomically transitions an available bed to occupied. It reports
	// false when the bed was not available, without modifying anything.
	Occupy(ctx context.Context, bedID, patientID uuid.UUID) (bool, error)
	// Release atomically transitions an occupied bed back to available,
	// clearing the patient and stamping lastCleaned. It reports false when
	// the bed was not occupied.
	Release(ctx context.Context, bedID uuid.UUID) (bool, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) (*Bed, error)

	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateByDepartment(ctx context.Context, departmentID uuid.UUID) error

	CountByStatus(ctx context.Context, departmentID uuid.UUID) (map[Status]int, error)
	StatusNumbers(ctx context.Context, departmentID uuid.UUID) (map[Status][]string, error)
	CountByType(ctx context.Context, departmentID uuid.UUID) (map[Type]int, error)
}
