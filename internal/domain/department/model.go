package department

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Location describes where a department sits in the building.
type Location struct {
	Floor int    `json:"floor,omitempty"`
	Wing  string `json:"wing,omitempty"`
	Room  string `json:"room,omitempty"`
}

// Department is a hospital ward holding a grid of beds. Bed counts are
// denormalized and refreshed from the beds table; they are never edited
// directly by API callers.
type Department struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	TotalBeds        int       `json:"totalBeds"`
	OccupiedBeds     int       `json:"occupiedBeds"`
	AvailableBeds    int       `json:"availableBeds"`
	MaintenanceBeds  int       `json:"maintenanceBeds"`
	HeadOfDepartment string    `json:"headOfDepartment,omitempty"`
	ContactNumber    string    `json:"contactNumber,omitempty"`
	Location         Location  `json:"location"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BedCounts is a per-status tally of a department's active beds.
type BedCounts struct {
	Total       int `json:"total"`
	Occupied    int `json:"occupied"`
	Available   int `json:"available"`
	Maintenance int `json:"maintenance"`
	Cleaning    int `json:"cleaning"`
}

// ApplyBedCounts overwrites the denormalized counters from a fresh tally.
// Cleaning beds count into the maintenance bucket: they are equally
// unassignable, and the dashboard only distinguishes three states.
func (d *Department) ApplyBedCounts(c BedCounts) {
	d.TotalBeds = c.Total
	d.OccupiedBeds = c.Occupied
	d.MaintenanceBeds = c.Maintenance + c.Cleaning
	d.AvailableBeds = d.TotalBeds - d.OccupiedBeds - d.MaintenanceBeds
}

// AvailabilityPercentage returns the share of beds currently available,
// rounded to the nearest whole percent.
func (d *Department) AvailabilityPercentage() int {
	if d.TotalBeds == 0 {
		return 0
	}
	return int(math.Round(float64(d.AvailableBeds) / float64(d.TotalBeds) * 100))
}

// AvailabilityStatus maps availability to a traffic-light color for the
// dashboard: green at 60% or more, yellow at 30%, red below.
func (d *Department) AvailabilityStatus() string {
	pct := d.AvailabilityPercentage()
	switch {
	case pct >= 60:
		return "green"
	case pct >= 30:
		return "yellow"
	default:
		return "red"
	}
}

// departmentView is the JSON shape returned by the API, carrying the
// derived availability fields alongside the stored ones.
type departmentView struct {
	*Department
	AvailabilityPercentage int    `json:"availabilityPercentage"`
	AvailabilityStatus     string `json:"availabilityStatus"`
}

// View wraps a department with its derived fields for serialization.
func View(d *Department) interface{} {
	return departmentView{
		Department:             d,
		AvailabilityPercentage: d.AvailabilityPercentage(),
		AvailabilityStatus:     d.AvailabilityStatus(),
	}
}

// Views wraps a slice of departments for serialization.
func Views(ds []*Department) []interface{} {
	out := make([]interface{}, len(ds))
	for i, d := range ds {
		out[i] = View(d)
	}
	return out
}
