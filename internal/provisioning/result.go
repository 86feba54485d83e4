package provisioning

import (
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
)

// Status is the business outcome of a write operation
type Status string

// Write operation outcomes. Infrastructure failures are returned as errors
// instead.
const (
	StatusOK       Status = "ok"
	StatusInvalid  Status = "invalid"
	StatusNotFound Status = "not_found"
	StatusConflict Status = "conflict"
)

// TenantResult is returned by tenant write operations
type TenantResult struct {
	Status  Status
	Message string
	Tenant  *tenant.Tenant
}

// OK reports whether the operation succeeded
func (r TenantResult) OK() bool { return r.Status == StatusOK }

// UserResult is returned by user write operations
type UserResult struct {
	Status  Status
	Message string
	User    *user.User
}

// OK reports whether the operation succeeded
func (r UserResult) OK() bool { return r.Status == StatusOK }

func tenantFailure(status Status, msg string) TenantResult {
	return TenantResult{Status: status, Message: msg}
}

func userFailure(status Status, msg string) UserResult {
	return UserResult{Status: status, Message: msg}
}
