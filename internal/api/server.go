// Package api exposes the tenant and user operations over HTTP
package api

import (
	"context"
	"net/http"

	"github.com/RedHatInsights/tenant_provisioner/internal/controlplane"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
	"github.com/RedHatInsights/tenant_provisioner/internal/provisioning"
	"github.com/go-chi/chi/v5"
	"github.com/redhatinsights/platform-go-middlewares/identity"
	"github.com/redhatinsights/platform-go-middlewares/request_id"
)

// BasePath prefixes every route
const BasePath = "/api/tenant-provisioner/v1"

// Service is the set of workflow operations served over HTTP
type Service interface {
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, name string) (provisioning.TenantResult, error)
	UpdateTenant(ctx context.Context, id int64, name string) (provisioning.TenantResult, error)
	DeleteTenant(ctx context.Context, id int64) (provisioning.TenantResult, error)
	ListRemoteDatabases(ctx context.Context) ([]controlplane.Database, error)
	ListUsers(ctx context.Context, tenantRef string) []user.User
	GetUser(ctx context.Context, tenantRef, userRef string) (*user.User, error)
	CreateUser(ctx context.Context, tenantRef, name, email string) (provisioning.UserResult, error)
	UpdateUser(ctx context.Context, tenantRef, userRef, name, email string) (provisioning.UserResult, error)
	DeleteUser(ctx context.Context, tenantRef, userRef string) (provisioning.UserResult, error)
}

// Server holds the router and the service it dispatches to
type Server struct {
	Router *chi.Mux
	svc    Service
}

// NewServer builds the router. When requireIdentity is set every request
// must carry a valid identity header.
func NewServer(svc Service, requireIdentity bool) *Server {
	s := &Server{Router: chi.NewRouter(), svc: svc}
	s.Router.Use(request_id.RequestID)
	s.Router.Use(requestLogger)
	s.Router.Use(panicHandler)
	s.Router.Route(BasePath, func(r chi.Router) {
		if requireIdentity {
			r.Use(identity.EnforceIdentity)
		}
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.listTenants)
			r.Post("/", s.createTenant)
			r.Route("/{tenantID}", func(r chi.Router) {
				r.Get("/", s.getTenant)
				r.Patch("/", s.updateTenant)
				r.Delete("/", s.deleteTenant)
				r.Route("/users", func(r chi.Router) {
					r.Get("/", s.listUsers)
					r.Post("/", s.createUser)
					r.Get("/{userID}", s.getUser)
					r.Patch("/{userID}", s.updateUser)
					r.Delete("/{userID}", s.deleteUser)
				})
			})
		})
		r.Get("/remote-databases", s.listRemoteDatabases)
	})
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
