package bed

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a bed.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
	StatusCleaning    Status = "cleaning"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance, StatusCleaning:
		return true
	}
	return false
}

// Type classifies a bed and sets its default daily rate.
type Type string

const (
	TypeStandard   Type = "standard"
	TypeDeluxe     Type = "deluxe"
	TypeICU        Type = "icu"
	TypeVentilator Type = "ventilator"
)

func ValidType(t Type) bool {
	switch t {
	case TypeStandard, TypeDeluxe, TypeICU, TypeVentilator:
		return true
	}
	return false
}

// DefaultDailyRate returns the standard tariff for a bed type.
func DefaultDailyRate(t Type) float64 {
	switch t {
	case TypeICU:
		return 5000
	case TypeVentilator:
		return 8000
	case TypeDeluxe:
		return 3000
	default:
		return 2000
	}
}

// Position places a bed in the department's grid layout.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Equipment is a device attached to a bed.
type Equipment struct {
	Name   string `json:"name"`
	Status string `json:"status"` // working, maintenance, broken
}

// Bed is a single bed within a department. A bed carries a patient reference
// exactly when its status is occupied.
type Bed struct {
	ID               uuid.UUID   `json:"id"`
	Number           string      `json:"bedNumber"`
	DepartmentID     uuid.UUID   `json:"departmentId"`
	DepartmentName   string      `json:"departmentName"`
	Status           Status      `json:"status"`
	Position         Position    `json:"position"`
	CurrentPatientID *uuid.UUID  `json:"currentPatientId,omitempty"`
	BedType          Type        `json:"bedType"`
	Equipment        []Equipment `json:"equipment,omitempty"`
	DailyRate        float64     `json:"dailyRate"`
	LastCleaned      *time.Time  `json:"lastCleaned,omitempty"`
	LastMaintenance  *time.Time  `json:"lastMaintenance,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	IsActive         bool        `json:"isActive"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Identifier returns the display name, e.g. "ICU-ICU03".
func (b *Bed) Identifier() string {
	return b.DepartmentName + "-" + b.Number
}

// IsAvailable reports whether the bed can take a patient.
func (b *Bed) IsAvailable() bool {
	return b.Status == StatusAvailable && b.IsActive
}

// CheckInvariant verifies the occupied-iff-patient rule.
func (b *Bed) CheckInvariant() bool {
	if b.Status == StatusOccupied {
		return b.CurrentPatientID != nil
	}
	return b.CurrentPatientID == nil
}
