package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MockTenantRepository keeps tenants in memory
type MockTenantRepository struct {
	Tenants       map[int64]*tenant.Tenant
	NextID        int64
	ListCalled    int
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
	CreateError   error
	UpdateError   error
	DeleteError   error
}

// NewMockTenantRepository returns an empty repository
func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{Tenants: make(map[int64]*tenant.Tenant), NextID: 1}
}

func (mtr *MockTenantRepository) List(ctx context.Context, logger *logrus.Entry) ([]tenant.Tenant, error) {
	mtr.ListCalled++
	if mtr.Error != nil {
		return nil, mtr.Error
	}
	tenants := make([]tenant.Tenant, 0, len(mtr.Tenants))
	for _, t := range mtr.Tenants {
		tenants = append(tenants, *t)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID > tenants[j].ID })
	return tenants, nil
}

func (mtr *MockTenantRepository) Get(ctx context.Context, logger *logrus.Entry, id int64) (*tenant.Tenant, error) {
	if mtr.Error != nil {
		return nil, mtr.Error
	}
	t, ok := mtr.Tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (mtr *MockTenantRepository) Create(ctx context.Context, logger *logrus.Entry, t *tenant.Tenant) error {
	if mtr.CreateError != nil {
		return mtr.CreateError
	}
	t.ID = mtr.NextID
	t.CreatedAt = time.Now()
	mtr.NextID++
	cp := *t
	mtr.Tenants[t.ID] = &cp
	mtr.AddsCalled++
	return nil
}

func (mtr *MockTenantRepository) UpdateName(ctx context.Context, logger *logrus.Entry, t *tenant.Tenant, name string) error {
	if mtr.UpdateError != nil {
		return mtr.UpdateError
	}
	stored, ok := mtr.Tenants[t.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = name
	t.Name = name
	mtr.UpdatesCalled++
	return nil
}

func (mtr *MockTenantRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mtr.DeleteError != nil {
		return mtr.DeleteError
	}
	if _, ok := mtr.Tenants[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(mtr.Tenants, id)
	mtr.DeletesCalled++
	return nil
}

func (mtr *MockTenantRepository) Stats() map[string]int {
	return map[string]int{"adds": mtr.AddsCalled, "deletes": mtr.DeletesCalled, "updates": mtr.UpdatesCalled}
}
