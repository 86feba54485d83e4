package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/RedHatInsights/tenant_provisioner/internal/provisioning"
	"github.com/go-chi/chi/v5"
)

type tenantRequest struct {
	Name string `json:"name"`
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// tenantView never exposes the credentials in the connection string
type tenantView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DatabaseURL string    `json:"database_url"`
	ResourceID  string    `json:"resource_id,omitempty"`
	RegionID    string    `json:"region_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewOf(t *tenant.Tenant) tenantView {
	return tenantView{
		ID:          t.ID,
		Name:        t.Name,
		DatabaseURL: logger.MaskDSN(t.DatabaseURL),
		ResourceID:  t.ResourceID.String,
		RegionID:    t.RegionID,
		CreatedAt:   t.CreatedAt,
	}
}

func tenantID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.svc.ListTenants(r.Context())
	if err != nil {
		sendFailure(w, r, err)
		return
	}
	views := make([]tenantView, 0, len(tenants))
	for i := range tenants {
		views = append(views, viewOf(&tenants[i]))
	}
	sendData(w, r, http.StatusOK, views)
}

func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	t, err := s.svc.GetTenant(r.Context(), id)
	if err != nil {
		sendFailure(w, r, err)
		return
	}
	if t == nil {
		sendError(w, r, http.StatusNotFound, "tenant not found")
		return
	}
	sendData(w, r, http.StatusOK, viewOf(t))
}

func (s *Server) createTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decode(r, &req); err != nil {
		sendFailure(w, r, err)
		return
	}
	res, err := s.svc.CreateTenant(r.Context(), req.Name)
	s.sendTenantResult(w, r, res, err, http.StatusCreated)
}

func (s *Server) updateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	var req tenantRequest
	if err := decode(r, &req); err != nil {
		sendFailure(w, r, err)
		return
	}
	res, err := s.svc.UpdateTenant(r.Context(), id, req.Name)
	s.sendTenantResult(w, r, res, err, http.StatusOK)
}

func (s *Server) deleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(r)
	if !ok {
		sendError(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	res, err := s.svc.DeleteTenant(r.Context(), id)
	s.sendTenantResult(w, r, res, err, http.StatusOK)
}

func (s *Server) sendTenantResult(w http.ResponseWriter, r *http.Request, res provisioning.TenantResult, err error, okStatus int) {
	switch {
	case err != nil:
		sendFailure(w, r, err)
	case !res.OK():
		sendError(w, r, statusCode(res.Status), res.Message)
	case res.Tenant == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		sendData(w, r, okStatus, viewOf(res.Tenant))
	}
}

func (s *Server) listRemoteDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.svc.ListRemoteDatabases(r.Context())
	if err != nil {
		sendFailure(w, r, err)
		return
	}
	if dbs == nil {
		sendJSON(w, r, http.StatusOK, envelope{Data: []struct{}{}})
		return
	}
	sendData(w, r, http.StatusOK, dbs)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	sendData(w, r, http.StatusOK, s.svc.ListUsers(r.Context(), chi.URLParam(r, "tenantID")))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "userID"))
	if err != nil {
		sendFailure(w, r, err)
		return
	}
	if u == nil {
		sendError(w, r, http.StatusNotFound, "user not found")
		return
	}
	sendData(w, r, http.StatusOK, u)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(r, &req); err != nil {
		sendFailure(w, r, err)
		return
	}
	res, err := s.svc.CreateUser(r.Context(), chi.URLParam(r, "tenantID"), req.Name, req.Email)
	s.sendUserResult(w, r, res, err, http.StatusCreated)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(r, &req); err != nil {
		sendFailure(w, r, err)
		return
	}
	res, err := s.svc.UpdateUser(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "userID"), req.Name, req.Email)
	s.sendUserResult(w, r, res, err, http.StatusOK)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.DeleteUser(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "userID"))
	s.sendUserResult(w, r, res, err, http.StatusNoContent)
}

func (s *Server) sendUserResult(w http.ResponseWriter, r *http.Request, res provisioning.UserResult, err error, okStatus int) {
	switch {
	case err != nil:
		sendFailure(w, r, err)
	case !res.OK():
		sendError(w, r, statusCode(res.Status), res.Message)
	case res.User == nil:
		w.WriteHeader(okStatus)
	default:
		sendData(w, r, okStatus, res.User)
	}
}
