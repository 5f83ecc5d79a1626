package bed

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/domain/department"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
)

type mockRepo struct {
	beds map[uuid.UUID]*Bed
}

func newMockRepo() *mockRepo {
	return &mockRepo{beds: make(map[uuid.UUID]*Bed)}
}

func (m *mockRepo) Create(_ context.Context, b *Bed) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.IsActive = true
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) GetByNumber(_ context.Context, depID uuid.UUID, number string) (*Bed, error) {
	for _, b := range m.beds {
		if b.DepartmentID == depID && b.Number == number && b.IsActive {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByPosition(_ context.Context, depID uuid.UUID, row, column int) (*Bed, error) {
	for _, b := range m.beds {
		if b.DepartmentID == depID && b.Position.Row == row && b.Position.Column == column && b.IsActive {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]*Bed, error) {
	var out []*Bed
	for _, b := range m.beds {
		if !b.IsActive {
			continue
		}
		if f.DepartmentID != nil && b.DepartmentID != *f.DepartmentID {
			continue
		}
		if f.DepartmentName != "" && b.DepartmentName != f.DepartmentName {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockRepo) ListByDepartment(ctx context.Context, depID uuid.UUID) ([]*Bed, error) {
	return m.List(ctx, Filter{DepartmentID: &depID})
}

func (m *mockRepo) Update(_ context.Context, b *Bed) error {
	if _, ok := m.beds[b.ID]; !ok {
		return ErrNotFound
	}
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) Occupy(_ context.Context, bedID, patientID uuid.UUID) (bool, error) {
	b, ok := m.beds[bedID]
	if !ok || b.Status != StatusAvailable || !b.IsActive {
		return false, nil
	}
	b.Status = StatusOccupied
	b.CurrentPatientID = &patientID
	return true, nil
}

func (m *mockRepo) Release(_ context.Context, bedID uuid.UUID) (bool, error) {
	b, ok := m.beds[bedID]
	if !ok || b.Status != StatusOccupied {
		return false, nil
	}
	b.Status = StatusAvailable
	b.CurrentPatientID = nil
	return true, nil
}

func (m *mockRepo) FindByPatient(_ context.Context, patientID uuid.UUID) (*Bed, error) {
	for _, b := range m.beds {
		if b.CurrentPatientID != nil && *b.CurrentPatientID == patientID && b.Status == StatusOccupied {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	b, ok := m.beds[id]
	if !ok {
		return ErrNotFound
	}
	b.IsActive = false
	return nil
}

func (m *mockRepo) DeactivateByDepartment(_ context.Context, depID uuid.UUID) error {
	for _, b := range m.beds {
		if b.DepartmentID == depID {
			b.IsActive = false
		}
	}
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context, depID uuid.UUID) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, b := range m.beds {
		if b.DepartmentID == depID && b.IsActive {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (m *mockRepo) StatusNumbers(_ context.Context, depID uuid.UUID) (map[Status][]string, error) {
	out := make(map[Status][]string)
	for _, b := range m.beds {
		if b.DepartmentID == depID && b.IsActive {
			out[b.Status] = append(out[b.Status], b.Number)
		}
	}
	return out, nil
}

func (m *mockRepo) CountByType(_ context.Context, depID uuid.UUID) (map[Type]int, error) {
	counts := make(map[Type]int)
	for _, b := range m.beds {
		if b.DepartmentID == depID && b.IsActive {
			counts[b.BedType]++
		}
	}
	return counts, nil
}

type mockDepartments struct {
	departments map[uuid.UUID]*department.Department
	refreshed   int
}

func (m *mockDepartments) Get(_ context.Context, id uuid.UUID) (*department.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, apperr.NotFound("DEPARTMENT_NOT_FOUND", "Department not found")
	}
	return d, nil
}

func (m *mockDepartments) RefreshBedCounts(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	m.refreshed++
	return m.Get(ctx, id)
}

type mockPatients struct {
	patients map[uuid.UUID]struct{ name, code string }
}

func (m *mockPatients) PatientSummary(_ context.Context, id uuid.UUID) (string, string, error) {
	p, ok := m.patients[id]
	if !ok {
		return "", "", apperr.NotFound("PATIENT_NOT_FOUND", "Patient not found")
	}
	return p.name, p.code, nil
}

type fixture struct {
	repo        *mockRepo
	departments *mockDepartments
	patients    *mockPatients
	svc         *Service
	depID       uuid.UUID
}

func newFixture() *fixture {
	depID := uuid.New()
	departments := &mockDepartments{departments: map[uuid.UUID]*department.Department{
		depID: {ID: depID, Name: "General", IsActive: true},
	}}
	patients := &mockPatients{patients: make(map[uuid.UUID]struct{ name, code string })}
	repo := newMockRepo()
	return &fixture{
		repo:        repo,
		departments: departments,
		patients:    patients,
		svc:         NewService(repo, departments, patients, events.NopPublisher{}),
		depID:       depID,
	}
}

func (f *fixture) addBed(number string, row, column int, status Status) *Bed {
	b := &Bed{
		Number:         number,
		DepartmentID:   f.depID,
		DepartmentName: "General",
		Status:         status,
		Position:       Position{Row: row, Column: column},
		BedType:        TypeStandard,
		DailyRate:      2000,
	}
	f.repo.Create(context.Background(), b)
	return b
}

func (f *fixture) addPatient(name, code string) uuid.UUID {
	id := uuid.New()
	f.patients.patients[id] = struct{ name, code string }{name, code}
	return id
}

func TestCreateBed(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), &Bed{
		Number:       "GEN01",
		DepartmentID: f.depID,
		Position:     Position{Row: 1, Column: 1},
		BedType:      TypeICU,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.DailyRate != 5000 {
		t.Errorf("daily rate = %v, want icu default 5000", b.DailyRate)
	}
	if b.DepartmentName != "General" {
		t.Errorf("department name = %q, want General", b.DepartmentName)
	}
	if f.departments.refreshed != 1 {
		t.Errorf("department counts refreshed %d times, want 1", f.departments.refreshed)
	}
}

func TestCreateBed_DuplicateNumber(t *testing.T) {
	f := newFixture()
	f.addBed("GEN01", 1, 1, StatusAvailable)

	_, err := f.svc.Create(context.Background(), &Bed{
		Number:       "GEN01",
		DepartmentID: f.depID,
		Position:     Position{Row: 2, Column: 1},
	})
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "BED_EXISTS" {
		t.Fatalf("expected BED_EXISTS, got %v", err)
	}
}

func TestCreateBed_PositionTaken(t *testing.T) {
	f := newFixture()
	f.addBed("GEN01", 1, 1, StatusAvailable)

	_, err := f.svc.Create(context.Background(), &Bed{
		Number:       "GEN02",
		DepartmentID: f.depID,
		Position:     Position{Row: 1, Column: 1},
	})
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "POSITION_OCCUPIED" {
		t.Fatalf("expected POSITION_OCCUPIED, got %v", err)
	}
}

func TestOccupyBed(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	got, err := f.svc.Occupy(context.Background(), b.ID, pid)
	if err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	if got.Status != StatusOccupied {
		t.Errorf("status = %s, want occupied", got.Status)
	}
	if got.CurrentPatientID == nil || *got.CurrentPatientID != pid {
		t.Error("bed should reference the occupying patient")
	}
	if !got.CheckInvariant() {
		t.Error("occupied-iff-patient invariant violated")
	}
}

func TestOccupyBed_NotAvailable(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusMaintenance)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	_, err := f.svc.Occupy(context.Background(), b.ID, pid)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "BED_NOT_AVAILABLE" {
		t.Fatalf("expected BED_NOT_AVAILABLE, got %v", err)
	}
	if ae.Meta["currentStatus"] != StatusMaintenance {
		t.Errorf("meta currentStatus = %v, want maintenance", ae.Meta["currentStatus"])
	}
	if f.repo.beds[b.ID].CurrentPatientID != nil {
		t.Error("failed occupy must not modify the bed")
	}
}

func TestOccupyBed_PatientAlreadyAssigned(t *testing.T) {
	f := newFixture()
	first := f.addBed("GEN01", 1, 1, StatusAvailable)
	second := f.addBed("GEN02", 1, 2, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	if _, err := f.svc.Occupy(context.Background(), first.ID, pid); err != nil {
		t.Fatalf("first occupy: %v", err)
	}

	_, err := f.svc.Occupy(context.Background(), second.ID, pid)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "PATIENT_ALREADY_ASSIGNED" {
		t.Fatalf("expected PATIENT_ALREADY_ASSIGNED, got %v", err)
	}
	if ae.Meta["currentBed"] != "GEN01" {
		t.Errorf("meta currentBed = %v, want GEN01", ae.Meta["currentBed"])
	}
	if f.repo.beds[second.ID].Status != StatusAvailable {
		t.Error("second bed must stay available")
	}
}

func TestOccupyBed_UnknownPatient(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)

	_, err := f.svc.Occupy(context.Background(), b.ID, uuid.New())
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "PATIENT_NOT_FOUND" {
		t.Fatalf("expected PATIENT_NOT_FOUND, got %v", err)
	}
}

func TestReleaseBed(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	if _, err := f.svc.Occupy(context.Background(), b.ID, pid); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	got, err := f.svc.Release(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got.Status != StatusAvailable {
		t.Errorf("status = %s, want available", got.Status)
	}
	if got.CurrentPatientID != nil {
		t.Error("released bed must not keep a patient reference")
	}
	if !got.CheckInvariant() {
		t.Error("occupied-iff-patient invariant violated after release")
	}
}

func TestReleaseBed_NotOccupied(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusCleaning)

	_, err := f.svc.Release(context.Background(), b.ID)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "BED_NOT_OCCUPIED" {
		t.Fatalf("expected BED_NOT_OCCUPIED, got %v", err)
	}
}

func TestUpdateStatus_OccupiedRequiresPatient(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)

	_, err := f.svc.UpdateStatus(context.Background(), b.ID, StatusOccupied, "")
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "NO_PATIENT_ASSIGNED" {
		t.Fatalf("expected NO_PATIENT_ASSIGNED, got %v", err)
	}
}

func TestUpdateStatus_MaintenanceClearsPatient(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	if _, err := f.svc.Occupy(context.Background(), b.ID, pid); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	got, err := f.svc.UpdateStatus(context.Background(), b.ID, StatusMaintenance, "pump fault")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.CurrentPatientID != nil {
		t.Error("maintenance bed must not keep a patient reference")
	}
	if got.LastMaintenance == nil {
		t.Error("lastMaintenance should be stamped")
	}
	if got.Notes != "pump fault" {
		t.Errorf("notes = %q, want pump fault", got.Notes)
	}
}

func TestDeleteBed_OccupiedBlocked(t *testing.T) {
	f := newFixture()
	b := f.addBed("GEN01", 1, 1, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")

	if _, err := f.svc.Occupy(context.Background(), b.ID, pid); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	err := f.svc.Delete(context.Background(), b.ID)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "BED_OCCUPIED" {
		t.Fatalf("expected BED_OCCUPIED, got %v", err)
	}
	if !f.repo.beds[b.ID].IsActive {
		t.Error("bed should remain active after blocked delete")
	}
}

func TestGetGrid(t *testing.T) {
	f := newFixture()
	f.addBed("GEN01", 1, 1, StatusAvailable)
	f.addBed("GEN02", 1, 2, StatusAvailable)
	occupied := f.addBed("GEN03", 2, 1, StatusAvailable)
	pid := f.addPatient("Asha Verma", "PAT20260001")
	if _, err := f.svc.Occupy(context.Background(), occupied.ID, pid); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	grid, err := f.svc.GetGrid(context.Background(), f.depID)
	if err != nil {
		t.Fatalf("GetGrid: %v", err)
	}

	if grid.Dimensions.Rows != 2 || grid.Dimensions.Columns != 2 {
		t.Errorf("dimensions = %dx%d, want 2x2", grid.Dimensions.Rows, grid.Dimensions.Columns)
	}
	if grid.Rows[1][1] != nil {
		t.Error("empty slot should be nil")
	}

	cell := grid.Rows[1][0]
	if cell == nil || cell.CurrentPatient == nil {
		t.Fatal("occupied cell should carry patient info")
	}
	if cell.CurrentPatient.PatientID != "PAT20260001" {
		t.Errorf("occupant code = %q, want PAT20260001", cell.CurrentPatient.PatientID)
	}

	if grid.Stats.Total != 3 || grid.Stats.Available != 2 || grid.Stats.Occupied != 1 {
		t.Errorf("stats = %+v", grid.Stats)
	}
	if grid.Stats.AvailabilityPercentage != 67 {
		t.Errorf("availability = %d, want 67", grid.Stats.AvailabilityPercentage)
	}
	if grid.Stats.ColorStatus != "green" {
		t.Errorf("color = %s, want green", grid.Stats.ColorStatus)
	}
}

func TestDirectoryCountByStatus(t *testing.T) {
	f := newFixture()
	f.addBed("GEN01", 1, 1, StatusAvailable)
	f.addBed("GEN02", 1, 2, StatusMaintenance)
	f.addBed("GEN03", 1, 3, StatusCleaning)

	dir := NewDirectory(f.repo)
	counts, err := dir.CountByStatus(context.Background(), f.depID)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts.Total != 3 || counts.Available != 1 || counts.Maintenance != 1 || counts.Cleaning != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestDirectoryProvisionGrid(t *testing.T) {
	f := newFixture()
	dir := NewDirectory(f.repo)

	if err := dir.ProvisionGrid(context.Background(), f.depID, "ICU", 7); err != nil {
		t.Fatalf("ProvisionGrid: %v", err)
	}

	beds, _ := f.repo.ListByDepartment(context.Background(), f.depID)
	if len(beds) != 7 {
		t.Fatalf("provisioned %d beds, want 7", len(beds))
	}

	b, err := f.repo.GetByNumber(context.Background(), f.depID, "ICU06")
	if err != nil {
		t.Fatalf("bed ICU06 missing: %v", err)
	}
	if b.Position.Row != 2 || b.Position.Column != 1 {
		t.Errorf("ICU06 position = %+v, want row 2 column 1", b.Position)
	}
	if b.BedType != TypeICU || b.DailyRate != 5000 {
		t.Errorf("ICU bed should default to icu type at 5000, got %s %v", b.BedType, b.DailyRate)
	}
}
