package bed

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// GridCell is one slot of a department's bed layout. Empty slots are nil.
type GridCell struct {
	ID             uuid.UUID   `json:"id"`
	BedNumber      string      `json:"bedNumber"`
	Status         Status      `json:"status"`
	BedType        Type        `json:"bedType"`
	DailyRate      float64     `json:"dailyRate"`
	IsAvailable    bool        `json:"isAvailable"`
	CurrentPatient *GridOccupant `json:"currentPatient"`
	Equipment      []Equipment `json:"equipment,omitempty"`
	LastCleaned    *time.Time  `json:"lastCleaned,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// GridOccupant identifies the patient in an occupied cell.
type GridOccupant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	PatientID string    `json:"patientId"`
}

// GridStats summarizes availability across the grid.
type GridStats struct {
	Total                  int    `json:"total"`
	Available              int    `json:"available"`
	Occupied               int    `json:"occupied"`
	Maintenance            int    `json:"maintenance"`
	Cleaning               int    `json:"cleaning"`
	AvailabilityPercentage int    `json:"availabilityPercentage"`
	ColorStatus            string `json:"colorStatus"`
}

// Grid is the seat-map style layout of a department's beds.
type Grid struct {
	Department struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
	} `json:"department"`
	Rows       [][]*GridCell `json:"grid"`
	Dimensions struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	} `json:"dimensions"`
	Stats GridStats `json:"stats"`
}

// GetGrid builds the row/column matrix of a department's beds with per-cell
// occupant info and an availability summary.
func (s *Service) GetGrid(ctx context.Context, departmentID uuid.UUID) (*Grid, error) {
	dep, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	beds, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	g := &Grid{}
	g.Department.ID = dep.ID
	g.Department.Name = dep.Name
	g.Department.Description = dep.Description

	maxRow, maxColumn := 0, 0
	cells := make(map[int]map[int]*GridCell)
	for _, b := range beds {
		cell := &GridCell{
			ID:          b.ID,
			BedNumber:   b.Number,
			Status:      b.Status,
			BedType:     b.BedType,
			DailyRate:   b.DailyRate,
			IsAvailable: b.IsAvailable(),
			Equipment:   b.Equipment,
			LastCleaned: b.LastCleaned,
			Notes:       b.Notes,
		}
		if b.CurrentPatientID != nil {
			if name, code, err := s.patients.PatientSummary(ctx, *b.CurrentPatientID); err == nil {
				cell.CurrentPatient = &GridOccupant{ID: *b.CurrentPatientID, Name: name, PatientID: code}
			}
		}

		row, col := b.Position.Row, b.Position.Column
		if cells[row] == nil {
			cells[row] = make(map[int]*GridCell)
		}
		cells[row][col] = cell
		if row > maxRow {
			maxRow = row
		}
		if col > maxColumn {
			maxColumn = col
		}

		switch b.Status {
		case StatusAvailable:
			g.Stats.Available++
		case StatusOccupied:
			g.Stats.Occupied++
		case StatusMaintenance:
			g.Stats.Maintenance++
		case StatusCleaning:
			g.Stats.Cleaning++
		}
	}

	g.Rows = make([][]*GridCell, maxRow)
	for row := 1; row <= maxRow; row++ {
		g.Rows[row-1] = make([]*GridCell, maxColumn)
		for col := 1; col <= maxColumn; col++ {
			if cells[row] != nil {
				g.Rows[row-1][col-1] = cells[row][col]
			}
		}
	}
	g.Dimensions.Rows = maxRow
	g.Dimensions.Columns = maxColumn

	g.Stats.Total = len(beds)
	if g.Stats.Total > 0 {
		g.Stats.AvailabilityPercentage = int(math.Round(float64(g.Stats.Available) / float64(g.Stats.Total) * 100))
	}
	switch {
	case g.Stats.AvailabilityPercentage >= 60:
		g.Stats.ColorStatus = "green"
	case g.Stats.AvailabilityPercentage >= 30:
		g.Stats.ColorStatus = "yellow"
	default:
		g.Stats.ColorStatus = "red"
	}

	return g, nil
}
