package user

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// User is a record in a single tenant's database
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository interface supports user CRUD against one tenant database
type Repository interface {
	List(ctx context.Context, logger *logrus.Entry) ([]User, error)
	Get(ctx context.Context, logger *logrus.Entry, id int64) (*User, error)
	FindByEmail(ctx context.Context, logger *logrus.Entry, email string, excludeID int64) (*User, error)
	Create(ctx context.Context, logger *logrus.Entry, u *User) error
	Update(ctx context.Context, logger *logrus.Entry, u *User) error
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

// NewGORMRepository creates a new repository object for a tenant database
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

// List returns every user, newest first
func (gr *gormRepository) List(ctx context.Context, logger *logrus.Entry) ([]User, error) {
	var users []User
	if err := gr.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		logger.Errorf("Error fetching users %v", err)
		return nil, err
	}
	return users, nil
}

// Get returns the user with the given id, nil if there is none
func (gr *gormRepository) Get(ctx context.Context, logger *logrus.Entry, id int64) (*User, error) {
	var u User
	err := gr.db.WithContext(ctx).First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Errorf("Error locating user %d %v", id, err)
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns the user holding email, ignoring the user with
// excludeID. A zero excludeID ignores nobody.
func (gr *gormRepository) FindByEmail(ctx context.Context, logger *logrus.Entry, email string, excludeID int64) (*User, error) {
	var u User
	tx := gr.db.WithContext(ctx).Where("email = ?", email)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	err := tx.First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Errorf("Error locating user by email %v", err)
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user
func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, u *User) error {
	if result := gr.db.WithContext(ctx).Create(u); result.Error != nil {
		logger.Errorf("Error creating user %v", result.Error)
		return fmt.Errorf("Error creating user: %w", result.Error)
	}
	logger.Infof("Created user with ID %d", u.ID)
	atomic.AddInt64(&gr.creates, 1)
	return nil
}

// Update saves the name and email of an existing user and bumps updated_at
func (gr *gormRepository) Update(ctx context.Context, logger *logrus.Entry, u *User) error {
	u.UpdatedAt = time.Now()
	result := gr.db.WithContext(ctx).Model(&User{ID: u.ID}).Updates(map[string]interface{}{
		"name":       u.Name,
		"email":      u.Email,
		"updated_at": u.UpdatedAt,
	})
	if result.Error != nil {
		logger.Errorf("Error updating user %d %v", u.ID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	atomic.AddInt64(&gr.updates, 1)
	return nil
}

// Delete removes the user. Deleting an id that matches no row is reported
// as gorm.ErrRecordNotFound.
func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&User{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting user %d %v", id, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	atomic.AddInt64(&gr.deletes, 1)
	return nil
}
