// Package provisioning orchestrates tenant and user operations across the
// control plane, the tenant registry and the tenant databases.
//
// Multi step operations run as an ordered list of steps. A failing abort
// step stops the operation without undoing earlier steps, so a remote
// database can be leaked when the registry write fails and a rename can
// diverge when the local update fails.
package provisioning

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/controlplane"
	"github.com/RedHatInsights/tenant_provisioner/internal/events"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/metrics"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClientRouter returns the database client for a tenant connection string
type ClientRouter interface {
	Client(connectionString string) (*gorm.DB, error)
}

// DatabaseInitializer prepares a freshly provisioned tenant database
type DatabaseInitializer interface {
	Initialize(ctx context.Context, connectionString string) error
}

// UserRepositoryFactory builds a user repository on a tenant database client
type UserRepositoryFactory func(db *gorm.DB) user.Repository

// Options wires the workflow dependencies
type Options struct {
	Tenants      tenant.Repository
	ControlPlane controlplane.Client
	Router       ClientRouter
	Initializer  DatabaseInitializer
	// Users defaults to user.NewGORMRepository
	Users UserRepositoryFactory
	// Publisher defaults to a publisher that drops events
	Publisher events.Publisher
	// ListingTTL defaults to DefaultListingTTL, negative disables the
	// tenant listing cache
	ListingTTL time.Duration
}

// Workflow implements the tenant and user operations
type Workflow struct {
	tenants     tenant.Repository
	control     controlplane.Client
	router      ClientRouter
	initializer DatabaseInitializer
	users       UserRepositoryFactory
	publisher   events.Publisher
	listing     listingCache
}

// New creates a Workflow
func New(opts Options) *Workflow {
	w := &Workflow{
		tenants:     opts.Tenants,
		control:     opts.ControlPlane,
		router:      opts.Router,
		initializer: opts.Initializer,
		users:       opts.Users,
		publisher:   opts.Publisher,
	}
	ttl := opts.ListingTTL
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	w.listing.ttl = ttl
	if w.users == nil {
		w.users = user.NewGORMRepository
	}
	if w.publisher == nil {
		w.publisher = events.NewNoopPublisher()
	}
	return w
}

// ListTenants returns all tenants, newest first
func (w *Workflow) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	tenants, gen, ok := w.listing.get()
	if ok {
		return tenants, nil
	}
	tenants, err := w.tenants.List(ctx, logger.GetLogger(ctx))
	if err != nil {
		return nil, apperrors.QueryError("provisioning.ListTenants", err)
	}
	w.listing.set(tenants, gen)
	return tenants, nil
}

// GetTenant returns the tenant with id, nil if it does not exist
func (w *Workflow) GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error) {
	t, err := w.tenants.Get(ctx, logger.GetLogger(ctx), id)
	if err != nil {
		return nil, apperrors.QueryError("provisioning.GetTenant", err)
	}
	return t, nil
}

// CreateTenant provisions a remote database for the trimmed name, registers the tenant and
// initializes its schema. Schema initialization failures leave the tenant
// registered with an uninitialized database.
func (w *Workflow) CreateTenant(ctx context.Context, name string) (TenantResult, error) {
	const op = "create_tenant"
	name = strings.TrimSpace(name)
	glog := logger.GetLogger(ctx)
	if msg := validationMessage(tenantInput{Name: name}); msg != "" {
		return w.tenantOutcome(op, tenantFailure(StatusInvalid, msg), nil)
	}

	var remote *controlplane.Database
	t := &tenant.Tenant{Name: name}
	err := runSteps(ctx, op, []step{
		{name: "create remote database", policy: abort, run: func(ctx context.Context) error {
			db, err := w.control.CreateDatabase(ctx, name)
			remote = db
			return err
		}},
		{name: "register tenant", policy: abort, run: func(ctx context.Context) error {
			t.DatabaseURL = remote.ConnectionString
			t.ResourceID = sql.NullString{String: remote.ResourceID, Valid: remote.ResourceID != ""}
			t.RegionID = remote.RegionID
			if len(remote.Raw) > 0 {
				t.RemoteMetadata = datatypes.JSON(remote.Raw)
			}
			if err := w.tenants.Create(ctx, glog, t); err != nil {
				glog.Errorf("Remote database %s is not registered to any tenant", remote.ResourceID)
				return apperrors.QueryError("provisioning.CreateTenant", err)
			}
			return nil
		}},
		{name: "initialize tenant database", policy: logAndContinue, run: func(ctx context.Context) error {
			return w.initializer.Initialize(ctx, t.DatabaseURL)
		}},
		{name: "notify", policy: logAndContinue, run: func(ctx context.Context) error {
			return w.tenantsChanged(ctx, events.TenantCreated, t)
		}},
	})
	if err != nil {
		return w.tenantOutcome(op, TenantResult{}, err)
	}
	glog.Infof("Created tenant %d %s", t.ID, t.Name)
	return w.tenantOutcome(op, TenantResult{Status: StatusOK, Tenant: t}, nil)
}

// UpdateTenant renames the remote database and then the registry record
func (w *Workflow) UpdateTenant(ctx context.Context, id int64, name string) (TenantResult, error) {
	const op = "update_tenant"
	name = strings.TrimSpace(name)
	glog := logger.GetLogger(ctx)
	if msg := validationMessage(tenantInput{Name: name}); msg != "" {
		return w.tenantOutcome(op, tenantFailure(StatusInvalid, msg), nil)
	}
	t, err := w.GetTenant(ctx, id)
	if err != nil {
		return w.tenantOutcome(op, TenantResult{}, err)
	}
	if t == nil {
		return w.tenantOutcome(op, tenantFailure(StatusNotFound, "tenant not found"), nil)
	}

	err = runSteps(ctx, op, []step{
		{name: "rename remote database", policy: abort, run: func(ctx context.Context) error {
			resourceID, err := w.resourceID(ctx, t)
			if err != nil {
				return err
			}
			return w.control.RenameDatabase(ctx, resourceID, name)
		}},
		{name: "rename tenant", policy: abort, run: func(ctx context.Context) error {
			if err := w.tenants.UpdateName(ctx, glog, t, name); err != nil {
				return apperrors.QueryError("provisioning.UpdateTenant", err)
			}
			return nil
		}},
		{name: "notify", policy: logAndContinue, run: func(ctx context.Context) error {
			return w.tenantsChanged(ctx, events.TenantUpdated, t)
		}},
	})
	if err != nil {
		return w.tenantOutcome(op, TenantResult{}, err)
	}
	return w.tenantOutcome(op, TenantResult{Status: StatusOK, Tenant: t}, nil)
}

// DeleteTenant destroys the remote database and then the registry record
func (w *Workflow) DeleteTenant(ctx context.Context, id int64) (TenantResult, error) {
	const op = "delete_tenant"
	glog := logger.GetLogger(ctx)
	t, err := w.GetTenant(ctx, id)
	if err != nil {
		return w.tenantOutcome(op, TenantResult{}, err)
	}
	if t == nil {
		return w.tenantOutcome(op, tenantFailure(StatusNotFound, "tenant not found"), nil)
	}

	err = runSteps(ctx, op, []step{
		{name: "delete remote database", policy: abort, run: func(ctx context.Context) error {
			resourceID, err := w.resourceID(ctx, t)
			if err != nil {
				return err
			}
			return w.control.DeleteDatabase(ctx, resourceID)
		}},
		{name: "delete tenant", policy: abort, run: func(ctx context.Context) error {
			if err := w.tenants.Delete(ctx, glog, t.ID); err != nil {
				return apperrors.QueryError("provisioning.DeleteTenant", err)
			}
			return nil
		}},
		{name: "notify", policy: logAndContinue, run: func(ctx context.Context) error {
			return w.tenantsChanged(ctx, events.TenantDeleted, t)
		}},
	})
	if err != nil {
		return w.tenantOutcome(op, TenantResult{}, err)
	}
	return w.tenantOutcome(op, TenantResult{Status: StatusOK, Tenant: t}, nil)
}

// ListRemoteDatabases lists the databases known to the control plane
func (w *Workflow) ListRemoteDatabases(ctx context.Context) ([]controlplane.Database, error) {
	return w.control.ListDatabases(ctx)
}

// HandleEvent drops the tenant listing when another replica changed the
// registry
func (w *Workflow) HandleEvent(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.TenantCreated, events.TenantUpdated, events.TenantDeleted:
		logger.GetLogger(ctx).Debugf("Invalidating tenant listing after %s", event.Type)
		w.listing.invalidate()
	}
}

// resourceID prefers the stored identifier over one parsed from the
// connection string
func (w *Workflow) resourceID(ctx context.Context, t *tenant.Tenant) (string, error) {
	if t.ResourceID.Valid && t.ResourceID.String != "" {
		return t.ResourceID.String, nil
	}
	id, err := w.control.ResolveResourceID(t.DatabaseURL)
	if err != nil {
		return "", err
	}
	logger.GetLogger(ctx).Warnf("Tenant %d has no stored resource id, using %s from its connection string", t.ID, id)
	return id, nil
}

func (w *Workflow) tenantsChanged(ctx context.Context, typ events.Type, t *tenant.Tenant) error {
	w.listing.invalidate()
	return w.publisher.Publish(ctx, events.New(ctx, typ, t.ID, t.Name))
}

func (w *Workflow) tenantOutcome(op string, r TenantResult, err error) (TenantResult, error) {
	recordOutcome(op, r.Status, err)
	return r, err
}

func (w *Workflow) userOutcome(op string, r UserResult, err error) (UserResult, error) {
	recordOutcome(op, r.Status, err)
	return r, err
}

func recordOutcome(op string, status Status, err error) {
	outcome := string(status)
	if err != nil {
		outcome = "error"
	}
	metrics.WorkflowOutcomes.WithLabelValues(op, outcome).Inc()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
