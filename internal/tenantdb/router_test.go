package tenantdb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/testhelper"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const (
	acmeDSN = "postgresql://owner:pw@ep-abc-123.us-east-1.aws.neon.tech/neondb?sslmode=require"
	betaDSN = "postgresql://owner:pw@ep-def-456.us-east-1.aws.neon.tech/neondb?sslmode=require"
)

type countingOpener struct {
	t     *testing.T
	mu    sync.Mutex
	calls map[string]int
	mocks []sqlmock.Sqlmock
	close []func()
}

func newCountingOpener(t *testing.T) *countingOpener {
	return &countingOpener{t: t, calls: make(map[string]int)}
}

func (c *countingOpener) open(connectionString string) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[connectionString]++
	gdb, mock, teardown := testhelper.MockDBSetup(c.t)
	c.mocks = append(c.mocks, mock)
	c.close = append(c.close, teardown)
	return gdb, nil
}

func (c *countingOpener) teardown() {
	for _, f := range c.close {
		f()
	}
}

func TestClientSameStringSameInstance(t *testing.T) {
	co := newCountingOpener(t)
	defer co.teardown()
	r := NewRouter(co.open)

	first, err := r.Client(acmeDSN)
	assert.Nil(t, err)
	second, err := r.Client(acmeDSN)
	assert.Nil(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, co.calls[acmeDSN])
	assert.Equal(t, 1, r.Len())
}

func TestClientDistinctStrings(t *testing.T) {
	co := newCountingOpener(t)
	defer co.teardown()
	r := NewRouter(co.open)

	acme, err := r.Client(acmeDSN)
	assert.Nil(t, err)
	beta, err := r.Client(betaDSN)
	assert.Nil(t, err)

	assert.NotSame(t, acme, beta)
	assert.Equal(t, 2, r.Len())
}

func TestClientConcurrentInsertIfAbsent(t *testing.T) {
	co := newCountingOpener(t)
	defer co.teardown()
	r := NewRouter(co.open)

	const workers = 16
	got := make([]*gorm.DB, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := r.Client(acmeDSN)
			assert.Nil(t, err)
			got[i] = db
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, 1, co.calls[acmeDSN], "opener should run once per connection string")
}

func TestClientOpenError(t *testing.T) {
	r := NewRouter(func(string) (*gorm.DB, error) {
		return nil, errors.New("bad dsn")
	})

	db, err := r.Client(acmeDSN)
	assert.Nil(t, db)
	assert.True(t, apperrors.Is(err, apperrors.Query))
	assert.Equal(t, 0, r.Len(), "failed opens are not cached")
}

func TestOpenPostgresIsLazy(t *testing.T) {
	// nothing listens on port 1, building the client must still succeed
	db, err := OpenPostgres("postgresql://owner:pw@127.0.0.1:1/neondb?sslmode=disable")
	assert.Nil(t, err)
	assert.NotNil(t, db)
}

func TestInitializeFailureIsReported(t *testing.T) {
	co := newCountingOpener(t)
	defer co.teardown()
	ini := NewInitializer(NewRouter(co.open))

	// the mock has no expectations so every statement fails
	err := ini.Initialize(logger.CtxWithLoggerID(context.TODO(), "12345"), acmeDSN)
	assert.True(t, apperrors.Is(err, apperrors.Query), "expected a query error, got %v", err)
}

func TestInitializeRouterFailure(t *testing.T) {
	ini := NewInitializer(NewRouter(func(string) (*gorm.DB, error) {
		return nil, errors.New("bad dsn")
	}))

	err := ini.Initialize(context.TODO(), acmeDSN)
	assert.NotNil(t, err)
}
