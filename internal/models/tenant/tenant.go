package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant is one project in the registry, backed by its own remote database
type Tenant struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `gorm:"not null" json:"name"`
	DatabaseURL string    `gorm:"not null;uniqueIndex" json:"database_url"`
	// ResourceID is null for tenants registered before the column existed
	ResourceID     sql.NullString `json:"-"`
	RegionID       string         `json:"region_id,omitempty"`
	RemoteMetadata datatypes.JSON `json:"remote_metadata,omitempty"`
}

// Repository interface supports the registry CRUD operations
type Repository interface {
	List(ctx context.Context, logger *logrus.Entry) ([]Tenant, error)
	Get(ctx context.Context, logger *logrus.Entry, id int64) (*Tenant, error)
	Create(ctx context.Context, logger *logrus.Entry, t *Tenant) error
	UpdateName(ctx context.Context, logger *logrus.Entry, t *Tenant, name string) error
	Delete(ctx context.Context, logger *logrus.Entry, id int64) error
	Stats() map[string]int
}

// gormRepository struct stores the DB handle and counters
type gormRepository struct {
	db      *gorm.DB
	updates int64
	creates int64
	deletes int64
}

// NewGORMRepository creates a new repository object
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Stats returns a map with the number of adds/updates/deletes
func (gr *gormRepository) Stats() map[string]int {
	return map[string]int{
		"adds":    int(atomic.LoadInt64(&gr.creates)),
		"updates": int(atomic.LoadInt64(&gr.updates)),
		"deletes": int(atomic.LoadInt64(&gr.deletes)),
	}
}

// List returns every tenant, newest first
func (gr *gormRepository) List(ctx context.Context, logger *logrus.Entry) ([]Tenant, error) {
	var tenants []Tenant
	if err := gr.db.WithContext(ctx).Order("created_at desc").Find(&tenants).Error; err != nil {
		logger.Errorf("Error fetching tenants %v", err)
		return nil, err
	}
	return tenants, nil
}

// Get returns the tenant with the given id, nil if there is none
func (gr *gormRepository) Get(ctx context.Context, logger *logrus.Entry, id int64) (*Tenant, error) {
	var t Tenant
	err := gr.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Errorf("Error locating tenant %d %v", id, err)
		return nil, err
	}
	return &t, nil
}

// Create inserts a new tenant record
func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, t *Tenant) error {
	if result := gr.db.WithContext(ctx).Create(t); result.Error != nil {
		logger.Errorf("Error creating tenant %s %v", t.Name, result.Error)
		return fmt.Errorf("Error creating tenant: %w", result.Error)
	}
	logger.Infof("Created tenant %s with ID %d", t.Name, t.ID)
	atomic.AddInt64(&gr.creates, 1)
	return nil
}

// UpdateName renames the tenant record, t is only changed when a row was
// updated
func (gr *gormRepository) UpdateName(ctx context.Context, logger *logrus.Entry, t *Tenant, name string) error {
	result := gr.db.WithContext(ctx).Model(&Tenant{}).Where("id = ?", t.ID).Update("name", name)
	if result.Error != nil {
		logger.Errorf("Error updating tenant %d %v", t.ID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	t.Name = name
	atomic.AddInt64(&gr.updates, 1)
	return nil
}

// Delete permanently removes the tenant record
func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&Tenant{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting tenant %d %v", id, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	logger.Infof("Deleted tenant %d", id)
	atomic.AddInt64(&gr.deletes, 1)
	return nil
}
