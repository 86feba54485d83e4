// Package events publishes and consumes tenant lifecycle events so that
// replicas can drop state derived from the tenant registry.
package events

import (
	"context"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/google/uuid"
)

// Type names a tenant lifecycle event
type Type string

// Tenant lifecycle event types
const (
	TenantCreated Type = "tenant.created"
	TenantUpdated Type = "tenant.updated"
	TenantDeleted Type = "tenant.deleted"
)

// Event is the message written to the events topic
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"event_type"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends tenant lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// New builds an event for tenantID, carrying the request id found in ctx
func New(ctx context.Context, typ Type, tenantID int64, name string) Event {
	e := Event{
		ID:        uuid.New().String(),
		Type:      typ,
		TenantID:  tenantID,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
	if id, ok := logger.GetLogger(ctx).Data["request_id"].(string); ok {
		e.RequestID = id
	}
	return e
}

// NoopPublisher discards events when no brokers are configured
type NoopPublisher struct{}

// NewNoopPublisher returns a Publisher that discards all events
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish implements Publisher
func (p *NoopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

// Close implements Publisher
func (p *NoopPublisher) Close() {}

var _ Publisher = (*NoopPublisher)(nil)
