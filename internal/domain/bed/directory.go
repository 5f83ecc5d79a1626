package bed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/domain/department"
)

// gridColumns is the bed-grid width used when provisioning a department.
const gridColumns = 5

// Directory adapts the bed repository to what the department service needs:
// occupancy tallies, breakdowns, and grid provisioning.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) CountByStatus(ctx context.Context, departmentID uuid.UUID) (department.BedCounts, error) {
	byStatus, err := d.repo.CountByStatus(ctx, departmentID)
	if err != nil {
		return department.BedCounts{}, err
	}
	c := department.BedCounts{
		Occupied:    byStatus[StatusOccupied],
		Available:   byStatus[StatusAvailable],
		Maintenance: byStatus[StatusMaintenance],
		Cleaning:    byStatus[StatusCleaning],
	}
	c.Total = c.Occupied + c.Available + c.Maintenance + c.Cleaning
	return c, nil
}

func (d *Directory) StatusBreakdown(ctx context.Context, departmentID uuid.UUID) ([]department.StatusGroup, error) {
	numbers, err := d.repo.StatusNumbers(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	groups := make([]department.StatusGroup, 0, len(numbers))
	for _, s := range []Status{StatusAvailable, StatusOccupied, StatusMaintenance, StatusCleaning} {
		if beds, ok := numbers[s]; ok {
			groups = append(groups, department.StatusGroup{
				Status:     string(s),
				Count:      len(beds),
				BedNumbers: beds,
			})
		}
	}
	return groups, nil
}

func (d *Directory) TypeBreakdown(ctx context.Context, departmentID uuid.UUID) ([]department.TypeGroup, error) {
	counts, err := d.repo.CountByType(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	groups := make([]department.TypeGroup, 0, len(counts))
	for _, t := range []Type{TypeStandard, TypeDeluxe, TypeICU, TypeVentilator} {
		if n, ok := counts[t]; ok {
			groups = append(groups, department.TypeGroup{BedType: string(t), Count: n})
		}
	}
	return groups, nil
}

func (d *Directory) CountOccupied(ctx context.Context, departmentID uuid.UUID) (int, error) {
	counts, err := d.repo.CountByStatus(ctx, departmentID)
	if err != nil {
		return 0, err
	}
	return counts[StatusOccupied], nil
}

func (d *Directory) DeactivateByDepartment(ctx context.Context, departmentID uuid.UUID) error {
	return d.repo.DeactivateByDepartment(ctx, departmentID)
}

// ProvisionGrid creates the bed grid for a new department: numbered beds
// laid out five per row, ICU departments getting icu-type beds.
func (d *Directory) ProvisionGrid(ctx context.Context, departmentID uuid.UUID, departmentName string, totalBeds int) error {
	prefix := strings.ToUpper(departmentName)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	bedType := TypeStandard
	if strings.EqualFold(departmentName, "ICU") {
		bedType = TypeICU
	}

	for i := 1; i <= totalBeds; i++ {
		b := &Bed{
			Number:         fmt.Sprintf("%s%02d", prefix, i),
			DepartmentID:   departmentID,
			DepartmentName: departmentName,
			Status:         StatusAvailable,
			Position: Position{
				Row:    (i-1)/gridColumns + 1,
				Column: (i-1)%gridColumns + 1,
			},
			BedType:   bedType,
			DailyRate: DefaultDailyRate(bedType),
		}
		if err := d.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("provisioning bed %s: %w", b.Number, err)
		}
	}
	return nil
}
