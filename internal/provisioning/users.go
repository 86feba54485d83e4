package provisioning

import (
	"context"
	"strings"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/user"
)

// tenantUsers resolves a tenant to the user repository of its database.
// A nil repository with a nil error means the tenant does not exist.
func (w *Workflow) tenantUsers(ctx context.Context, tenantID int64) (user.Repository, error) {
	t, err := w.GetTenant(ctx, tenantID)
	if err != nil || t == nil {
		return nil, err
	}
	db, err := w.router.Client(t.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return w.users(db), nil
}

// ListUsers returns the users of a tenant, newest first. Unknown or
// malformed tenants and query failures yield an empty list.
func (w *Workflow) ListUsers(ctx context.Context, tenantRef string) []user.User {
	glog := logger.GetLogger(ctx)
	empty := []user.User{}
	tenantID, ok := parseID(tenantRef)
	if !ok {
		glog.Infof("Listing users of malformed tenant id %q", tenantRef)
		return empty
	}
	repo, err := w.tenantUsers(ctx, tenantID)
	if err != nil {
		glog.Errorf("Error resolving tenant %d %v", tenantID, err)
		return empty
	}
	if repo == nil {
		return empty
	}
	users, err := repo.List(ctx, glog)
	if err != nil || users == nil {
		return empty
	}
	return users
}

// GetUser returns one user of a tenant, nil if the tenant or user does not
// exist
func (w *Workflow) GetUser(ctx context.Context, tenantRef, userRef string) (*user.User, error) {
	tenantID, ok := parseID(tenantRef)
	if !ok {
		return nil, nil
	}
	userID, ok := parseID(userRef)
	if !ok {
		return nil, nil
	}
	repo, err := w.tenantUsers(ctx, tenantID)
	if err != nil || repo == nil {
		return nil, err
	}
	u, err := repo.Get(ctx, logger.GetLogger(ctx), userID)
	if err != nil {
		return nil, apperrors.QueryError("provisioning.GetUser", err)
	}
	return u, nil
}

// CreateUser adds a user to a tenant database. Name and email are trimmed
// and the email must not be held by another user of the same tenant.
func (w *Workflow) CreateUser(ctx context.Context, tenantRef, name, email string) (UserResult, error) {
	const op = "create_user"
	glog := logger.GetLogger(ctx)
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if msg := validationMessage(userInput{Name: name, Email: email}); msg != "" {
		return w.userOutcome(op, userFailure(StatusInvalid, msg), nil)
	}
	tenantID, ok := parseID(tenantRef)
	if !ok {
		return w.userOutcome(op, userFailure(StatusInvalid, "invalid tenant id"), nil)
	}
	repo, err := w.tenantUsers(ctx, tenantID)
	if err != nil {
		return w.userOutcome(op, UserResult{}, err)
	}
	if repo == nil {
		return w.userOutcome(op, userFailure(StatusNotFound, "tenant not found"), nil)
	}

	existing, err := repo.FindByEmail(ctx, glog, email, 0)
	if err != nil {
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.CreateUser", err))
	}
	if existing != nil {
		return w.userOutcome(op, userFailure(StatusConflict, "a user with this email already exists"), nil)
	}

	u := &user.User{Name: name, Email: email}
	if err := repo.Create(ctx, glog, u); err != nil {
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.CreateUser", err))
	}
	return w.userOutcome(op, UserResult{Status: StatusOK, User: u}, nil)
}

// UpdateUser changes the name and email of a user. Keeping the current
// email is allowed, taking another user's email is a conflict.
func (w *Workflow) UpdateUser(ctx context.Context, tenantRef, userRef, name, email string) (UserResult, error) {
	const op = "update_user"
	glog := logger.GetLogger(ctx)
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if msg := validationMessage(userInput{Name: name, Email: email}); msg != "" {
		return w.userOutcome(op, userFailure(StatusInvalid, msg), nil)
	}
	tenantID, ok := parseID(tenantRef)
	if !ok {
		return w.userOutcome(op, userFailure(StatusInvalid, "invalid tenant id"), nil)
	}
	userID, ok := parseID(userRef)
	if !ok {
		return w.userOutcome(op, userFailure(StatusInvalid, "invalid user id"), nil)
	}
	repo, err := w.tenantUsers(ctx, tenantID)
	if err != nil {
		return w.userOutcome(op, UserResult{}, err)
	}
	if repo == nil {
		return w.userOutcome(op, userFailure(StatusNotFound, "tenant not found"), nil)
	}

	u, err := repo.Get(ctx, glog, userID)
	if err != nil {
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.UpdateUser", err))
	}
	if u == nil {
		return w.userOutcome(op, userFailure(StatusNotFound, "user not found"), nil)
	}

	holder, err := repo.FindByEmail(ctx, glog, email, userID)
	if err != nil {
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.UpdateUser", err))
	}
	if holder != nil {
		return w.userOutcome(op, userFailure(StatusConflict, "a user with this email already exists"), nil)
	}

	u.Name = name
	u.Email = email
	if err := repo.Update(ctx, glog, u); err != nil {
		if isNotFound(err) {
			return w.userOutcome(op, userFailure(StatusNotFound, "user not found"), nil)
		}
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.UpdateUser", err))
	}
	return w.userOutcome(op, UserResult{Status: StatusOK, User: u}, nil)
}

// DeleteUser removes a user without checking that it exists first. A delete
// that removes nothing is reported as an error.
func (w *Workflow) DeleteUser(ctx context.Context, tenantRef, userRef string) (UserResult, error) {
	const op = "delete_user"
	tenantID, ok := parseID(tenantRef)
	if !ok {
		return w.userOutcome(op, userFailure(StatusInvalid, "invalid tenant id"), nil)
	}
	userID, ok := parseID(userRef)
	if !ok {
		return w.userOutcome(op, userFailure(StatusInvalid, "invalid user id"), nil)
	}
	repo, err := w.tenantUsers(ctx, tenantID)
	if err != nil {
		return w.userOutcome(op, UserResult{}, err)
	}
	if repo == nil {
		return w.userOutcome(op, userFailure(StatusNotFound, "tenant not found"), nil)
	}
	if err := repo.Delete(ctx, logger.GetLogger(ctx), userID); err != nil {
		return w.userOutcome(op, UserResult{}, apperrors.QueryError("provisioning.DeleteUser", err))
	}
	return w.userOutcome(op, UserResult{Status: StatusOK}, nil)
}
