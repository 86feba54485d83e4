package tenantdb

import (
	"context"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
)

// Initializer applies the tenant schema to a tenant database
type Initializer struct {
	router *Router
}

// NewInitializer creates an Initializer that reaches tenant databases via router
func NewInitializer(router *Router) *Initializer {
	return &Initializer{router: router}
}

// Initialize creates the users table in the tenant database. Errors are
// logged and returned, callers decide whether they are fatal.
func (i *Initializer) Initialize(ctx context.Context, connectionString string) error {
	glog := logger.GetLogger(ctx)
	db, err := i.router.Client(connectionString)
	if err != nil {
		glog.Errorf("Error getting client for %s %v", logger.MaskDSN(connectionString), err)
		return err
	}
	if err := db.WithContext(ctx).AutoMigrate(&user.User{}); err != nil {
		glog.Errorf("Error initializing tenant database %s %v", logger.MaskDSN(connectionString), err)
		return apperrors.QueryError("tenantdb.Initialize", err)
	}
	glog.Infof("Initialized tenant database %s", logger.MaskDSN(connectionString))
	return nil
}
