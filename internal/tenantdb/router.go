// Package tenantdb routes requests to the database owned by a tenant and
// prepares freshly provisioned tenant databases.
package tenantdb

import (
	"sync"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/metrics"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Opener builds a client for a connection string. It must not touch the network.
type Opener func(connectionString string) (*gorm.DB, error)

// OpenPostgres opens a lazily connected postgres client
func OpenPostgres(connectionString string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
}

// Router hands out one client per distinct connection string. Clients are
// never evicted and live for the lifetime of the process.
type Router struct {
	open    Opener
	mu      sync.Mutex
	clients map[string]*gorm.DB
}

// NewRouter creates a Router, a nil opener defaults to OpenPostgres
func NewRouter(open Opener) *Router {
	if open == nil {
		open = OpenPostgres
	}
	return &Router{open: open, clients: make(map[string]*gorm.DB)}
}

// Client returns the cached client for connectionString, building and
// storing one on first use
func (r *Router) Client(connectionString string) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.clients[connectionString]; ok {
		return db, nil
	}
	db, err := r.open(connectionString)
	if err != nil {
		return nil, apperrors.QueryError("tenantdb.Client", err)
	}
	r.clients[connectionString] = db
	metrics.TenantClients.Set(float64(len(r.clients)))
	return db, nil
}

// Len is the number of cached clients
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
