package provisioning

import (
	"sync"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
)

// DefaultListingTTL bounds how long a tenant listing is served from memory
const DefaultListingTTL = 30 * time.Second

// listingCache holds the last tenant listing until a write invalidates it or
// it is older than ttl. A listing read before an invalidation is never
// stored after it. A zero ttl never expires, a negative ttl stores nothing.
type listingCache struct {
	mu         sync.RWMutex
	tenants    []tenant.Tenant
	valid      bool
	loadedAt   time.Time
	generation uint64
	ttl        time.Duration
	now        func() time.Time
}

func (c *listingCache) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// get returns the cached listing, or the current generation to pass to set
func (c *listingCache) get() ([]tenant.Tenant, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return nil, c.generation, false
	}
	if c.ttl > 0 && c.clock().Sub(c.loadedAt) >= c.ttl {
		return nil, c.generation, false
	}
	out := make([]tenant.Tenant, len(c.tenants))
	copy(out, c.tenants)
	return out, c.generation, true
}

func (c *listingCache) set(tenants []tenant.Tenant, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation || c.ttl < 0 {
		return
	}
	c.tenants = make([]tenant.Tenant, len(tenants))
	copy(c.tenants, tenants)
	c.loadedAt = c.clock()
	c.valid = true
}

func (c *listingCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants = nil
	c.valid = false
	c.generation++
}
