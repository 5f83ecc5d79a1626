package department

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/events"
)

type mockRepo struct {
	departments map[uuid.UUID]*Department
}

func newMockRepo() *mockRepo {
	return &mockRepo{departments: make(map[uuid.UUID]*Department)}
}

func (m *mockRepo) Create(_ context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.IsActive = true
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) GetByName(_ context.Context, name string) (*Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context) ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, d *Department) error {
	if _, ok := m.departments[d.ID]; !ok {
		return ErrNotFound
	}
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) UpdateCounts(_ context.Context, id uuid.UUID, total, occupied, available, maintenance int) error {
	d, ok := m.departments[id]
	if !ok {
		return ErrNotFound
	}
	d.TotalBeds, d.OccupiedBeds, d.AvailableBeds, d.MaintenanceBeds = total, occupied, available, maintenance
	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	d, ok := m.departments[id]
	if !ok {
		return ErrNotFound
	}
	d.IsActive = false
	return nil
}

type mockBeds struct {
	counts      map[uuid.UUID]BedCounts
	provisioned map[uuid.UUID]int
	deactivated map[uuid.UUID]bool
}

func newMockBeds() *mockBeds {
	return &mockBeds{
		counts:      make(map[uuid.UUID]BedCounts),
		provisioned: make(map[uuid.UUID]int),
		deactivated: make(map[uuid.UUID]bool),
	}
}

func (m *mockBeds) CountByStatus(_ context.Context, id uuid.UUID) (BedCounts, error) {
	return m.counts[id], nil
}

func (m *mockBeds) StatusBreakdown(_ context.Context, id uuid.UUID) ([]StatusGroup, error) {
	c := m.counts[id]
	return []StatusGroup{
		{Status: "available", Count: c.Available},
		{Status: "occupied", Count: c.Occupied},
	}, nil
}

func (m *mockBeds) TypeBreakdown(_ context.Context, id uuid.UUID) ([]TypeGroup, error) {
	return []TypeGroup{{BedType: "standard", Count: m.counts[id].Total}}, nil
}

func (m *mockBeds) CountOccupied(_ context.Context, id uuid.UUID) (int, error) {
	return m.counts[id].Occupied, nil
}

func (m *mockBeds) DeactivateByDepartment(_ context.Context, id uuid.UUID) error {
	m.deactivated[id] = true
	return nil
}

func (m *mockBeds) ProvisionGrid(_ context.Context, id uuid.UUID, _ string, totalBeds int) error {
	m.provisioned[id] = totalBeds
	m.counts[id] = BedCounts{Total: totalBeds, Available: totalBeds}
	return nil
}

type nopTxRunner struct{}

func (nopTxRunner) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *mockRepo, beds *mockBeds) *Service {
	return NewService(repo, beds, nopTxRunner{}, events.NopPublisher{})
}

func TestCreateDepartment(t *testing.T) {
	repo := newMockRepo()
	beds := newMockBeds()
	svc := newTestService(repo, beds)

	d, err := svc.Create(context.Background(), &Department{Name: "ICU", TotalBeds: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if beds.provisioned[d.ID] != 10 {
		t.Errorf("provisioned %d beds, want 10", beds.provisioned[d.ID])
	}
	if d.AvailableBeds != 10 {
		t.Errorf("available = %d, want 10", d.AvailableBeds)
	}
}

func TestCreateDepartment_Duplicate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, newMockBeds())

	if _, err := svc.Create(context.Background(), &Department{Name: "General", TotalBeds: 5}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), &Department{Name: "General", TotalBeds: 5})
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "DEPARTMENT_EXISTS" {
		t.Fatalf("expected DEPARTMENT_EXISTS, got %v", err)
	}
}

func TestCreateDepartment_InvalidBedCount(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockBeds())

	_, err := svc.Create(context.Background(), &Department{Name: "X", TotalBeds: 0})
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRefreshBedCounts(t *testing.T) {
	repo := newMockRepo()
	beds := newMockBeds()
	svc := newTestService(repo, beds)

	d := &Department{Name: "General", TotalBeds: 10}
	repo.Create(context.Background(), d)
	beds.counts[d.ID] = BedCounts{Total: 10, Occupied: 5, Available: 2, Maintenance: 2, Cleaning: 1}

	got, err := svc.RefreshBedCounts(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("RefreshBedCounts: %v", err)
	}
	if got.OccupiedBeds != 5 {
		t.Errorf("occupied = %d, want 5", got.OccupiedBeds)
	}
	if got.MaintenanceBeds != 3 {
		t.Errorf("maintenance = %d, want 3 (cleaning folds in)", got.MaintenanceBeds)
	}
	if got.AvailableBeds != 2 {
		t.Errorf("available = %d, want 2", got.AvailableBeds)
	}
	if got.OccupiedBeds+got.MaintenanceBeds+got.AvailableBeds != got.TotalBeds {
		t.Error("counts do not sum to total after refresh")
	}
}

func TestDeleteDepartment_OccupiedBedsBlocked(t *testing.T) {
	repo := newMockRepo()
	beds := newMockBeds()
	svc := newTestService(repo, beds)

	d := &Department{Name: "ICU", TotalBeds: 5}
	repo.Create(context.Background(), d)
	beds.counts[d.ID] = BedCounts{Total: 5, Occupied: 2, Available: 3}

	err := svc.Delete(context.Background(), d.ID)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "DEPARTMENT_HAS_OCCUPIED_BEDS" {
		t.Fatalf("expected DEPARTMENT_HAS_OCCUPIED_BEDS, got %v", err)
	}
	if !repo.departments[d.ID].IsActive {
		t.Error("department should remain active after blocked delete")
	}
}

func TestDeleteDepartment_DeactivatesBeds(t *testing.T) {
	repo := newMockRepo()
	beds := newMockBeds()
	svc := newTestService(repo, beds)

	d := &Department{Name: "General", TotalBeds: 5}
	repo.Create(context.Background(), d)
	beds.counts[d.ID] = BedCounts{Total: 5, Available: 5}

	if err := svc.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.departments[d.ID].IsActive {
		t.Error("department should be inactive after delete")
	}
	if !beds.deactivated[d.ID] {
		t.Error("beds should be deactivated with the department")
	}
}

func TestGetDepartment_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockBeds())

	_, err := svc.Get(context.Background(), uuid.New())
	ae, ok := apperr.As(err)
	if !ok || ae.Code != "DEPARTMENT_NOT_FOUND" {
		t.Fatalf("expected DEPARTMENT_NOT_FOUND, got %v", err)
	}
}
