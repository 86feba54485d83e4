package mocks

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/tenant_provisioner/internal/controlplane"
)

// MockControlPlane records calls and hands out sequential databases
type MockControlPlane struct {
	CreateCalled []string
	RenameCalled map[string]string
	DeleteCalled []string
	Databases    []controlplane.Database
	CreateError  error
	RenameError  error
	DeleteError  error
	ListError    error
	created      int
}

// NewMockControlPlane returns a control plane with no databases
func NewMockControlPlane() *MockControlPlane {
	return &MockControlPlane{RenameCalled: make(map[string]string)}
}

func (m *MockControlPlane) CreateDatabase(ctx context.Context, name string) (*controlplane.Database, error) {
	m.CreateCalled = append(m.CreateCalled, name)
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.created++
	host := fmt.Sprintf("ep-mock-%d.us-east-1.aws.neon.tech", m.created)
	db := controlplane.Database{
		ResourceID:       fmt.Sprintf("mock-project-%d", m.created),
		Name:             name,
		RegionID:         "aws-us-east-1",
		ConnectionString: controlplane.ConnectionString("owner", "pw", host, "neondb"),
		Raw:              []byte(fmt.Sprintf(`{"id":"mock-project-%d","name":%q}`, m.created, name)),
	}
	m.Databases = append(m.Databases, db)
	return &db, nil
}

func (m *MockControlPlane) RenameDatabase(ctx context.Context, resourceID, newName string) error {
	m.RenameCalled[resourceID] = newName
	return m.RenameError
}

func (m *MockControlPlane) DeleteDatabase(ctx context.Context, resourceID string) error {
	m.DeleteCalled = append(m.DeleteCalled, resourceID)
	return m.DeleteError
}

func (m *MockControlPlane) GetDatabase(ctx context.Context, resourceID string) (*controlplane.Database, error) {
	for _, db := range m.Databases {
		if db.ResourceID == resourceID {
			cp := db
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("project %s not found", resourceID)
}

func (m *MockControlPlane) ListDatabases(ctx context.Context) ([]controlplane.Database, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Databases, nil
}

func (m *MockControlPlane) ResolveResourceID(connectionString string) (string, error) {
	return controlplane.ResolveResourceID(connectionString)
}

var _ controlplane.Client = (*MockControlPlane)(nil)
