package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MockUserRepository keeps the users of one tenant database in memory
type MockUserRepository struct {
	Users         map[int64]*user.User
	NextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

// NewMockUserRepository returns an empty repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[int64]*user.User), NextID: 1}
}

func (mur *MockUserRepository) List(ctx context.Context, logger *logrus.Entry) ([]user.User, error) {
	if mur.Error != nil {
		return nil, mur.Error
	}
	users := make([]user.User, 0, len(mur.Users))
	for _, u := range mur.Users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (mur *MockUserRepository) Get(ctx context.Context, logger *logrus.Entry, id int64) (*user.User, error) {
	if mur.Error != nil {
		return nil, mur.Error
	}
	u, ok := mur.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (mur *MockUserRepository) FindByEmail(ctx context.Context, logger *logrus.Entry, email string, excludeID int64) (*user.User, error) {
	if mur.Error != nil {
		return nil, mur.Error
	}
	for _, u := range mur.Users {
		if u.Email == email && u.ID != excludeID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (mur *MockUserRepository) Create(ctx context.Context, logger *logrus.Entry, u *user.User) error {
	if mur.Error != nil {
		return mur.Error
	}
	u.ID = mur.NextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	mur.NextID++
	cp := *u
	mur.Users[u.ID] = &cp
	mur.AddsCalled++
	return nil
}

func (mur *MockUserRepository) Update(ctx context.Context, logger *logrus.Entry, u *user.User) error {
	if mur.Error != nil {
		return mur.Error
	}
	stored, ok := mur.Users[u.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.UpdatedAt = time.Now()
	u.CreatedAt = stored.CreatedAt
	cp := *u
	mur.Users[u.ID] = &cp
	mur.UpdatesCalled++
	return nil
}

func (mur *MockUserRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mur.Error != nil {
		return mur.Error
	}
	if _, ok := mur.Users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(mur.Users, id)
	mur.DeletesCalled++
	return nil
}

func (mur *MockUserRepository) Stats() map[string]int {
	return map[string]int{"adds": mur.AddsCalled, "deletes": mur.DeletesCalled, "updates": mur.UpdatesCalled}
}
