package provisioning

import (
	"errors"
	"fmt"
	"testing"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/stretchr/testify/assert"
)

func createTenant(t *testing.T, f *fixture, name string) *tenant.Tenant {
	r, err := f.workflow.CreateTenant(testCtx(), name)
	assert.Nil(t, err)
	assert.True(t, r.OK())
	return r.Tenant
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newFixture()
	acme := createTenant(t, f, "Acme")

	r, err := f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.True(t, r.OK())

	r, err = f.workflow.CreateUser(testCtx(), "1", "Jo Again", "jo@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusConflict, r.Status)
	assert.Len(t, f.usersOf(t, acme).Users, 1, "no second record")
}

func TestCreateUserTrimsInput(t *testing.T) {
	f := newFixture()
	acme := createTenant(t, f, "Acme")

	r, err := f.workflow.CreateUser(testCtx(), "1", " Jo ", " jo@x.com ")
	assert.Nil(t, err)
	assert.True(t, r.OK())
	assert.Equal(t, "Jo", r.User.Name)
	assert.Equal(t, "jo@x.com", r.User.Email)

	dup, err := f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com  ")
	assert.Nil(t, err)
	assert.Equal(t, StatusConflict, dup.Status, "padding does not dodge the duplicate check")
	assert.Len(t, f.usersOf(t, acme).Users, 1)

	other, _ := f.workflow.CreateUser(testCtx(), "1", "Sam", "sam@x.com")
	u, err := f.workflow.UpdateUser(testCtx(), "1", fmt.Sprintf("%d", other.User.ID), " Sam ", " jo@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusConflict, u.Status)

	u, err = f.workflow.UpdateUser(testCtx(), "1", fmt.Sprintf("%d", other.User.ID), " Samuel ", " samuel@x.com ")
	assert.Nil(t, err)
	assert.True(t, u.OK())
	assert.Equal(t, "Samuel", u.User.Name)
	assert.Equal(t, "samuel@x.com", u.User.Email)
}

func TestCreateUserSameEmailOtherTenant(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")
	beta := createTenant(t, f, "Beta")

	_, _ = f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")
	r, err := f.workflow.CreateUser(testCtx(), "2", "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.True(t, r.OK(), "tenants are isolated")
	assert.Len(t, f.usersOf(t, beta).Users, 1)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")

	tests := []struct {
		name    string
		tenant  string
		user    string
		email   string
		status  Status
		message string
	}{
		{"blank name", "1", " ", "jo@x.com", StatusInvalid, "name is required"},
		{"blank email", "1", "Jo", "", StatusInvalid, "email is required"},
		{"malformed email", "1", "Jo", "not-an-email", StatusInvalid, "email is not a valid email address"},
		{"malformed tenant", "abc", "Jo", "jo@x.com", StatusInvalid, "invalid tenant id"},
		{"unknown tenant", "42", "Jo", "jo@x.com", StatusNotFound, "tenant not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.workflow.CreateUser(testCtx(), tt.tenant, tt.user, tt.email)
			assert.Nil(t, err)
			assert.Equal(t, tt.status, r.Status)
			assert.Equal(t, tt.message, r.Message)
		})
	}
}

func TestCreateUserQueryFailure(t *testing.T) {
	f := newFixture()
	acme := createTenant(t, f, "Acme")
	f.usersOf(t, acme).Error = errors.New("relation users does not exist")

	_, err := f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")
	assert.True(t, apperrors.Is(err, apperrors.Query))
}

func TestCreateUserRouterFailure(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")
	f.router.err = apperrors.QueryError("tenantdb.Client", errors.New("bad dsn"))

	_, err := f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")
	assert.True(t, apperrors.Is(err, apperrors.Query))
}

func TestUpdateUserEmailConflict(t *testing.T) {
	f := newFixture()
	acme := createTenant(t, f, "Acme")
	jo, _ := f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")
	_, _ = f.workflow.CreateUser(testCtx(), "1", "Sam", "sam@x.com")

	r, err := f.workflow.UpdateUser(testCtx(), "1", "1", "Jo", "sam@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusConflict, r.Status)
	assert.Equal(t, "jo@x.com", f.usersOf(t, acme).Users[jo.User.ID].Email)

	r, err = f.workflow.UpdateUser(testCtx(), "1", "1", "Jo Smith", "jo@x.com")
	assert.Nil(t, err)
	assert.True(t, r.OK(), "keeping the current email is allowed")
	assert.Equal(t, "Jo Smith", f.usersOf(t, acme).Users[jo.User.ID].Name)
}

func TestUpdateUserMissing(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")

	r, err := f.workflow.UpdateUser(testCtx(), "1", "7", "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusNotFound, r.Status)

	r, err = f.workflow.UpdateUser(testCtx(), "1", "x", "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusInvalid, r.Status)

	r, err = f.workflow.UpdateUser(testCtx(), "9", "1", "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.Equal(t, StatusNotFound, r.Status)
}

func TestDeleteUserMissingIsFailure(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")

	_, err := f.workflow.DeleteUser(testCtx(), "1", "7")
	assert.True(t, apperrors.Is(err, apperrors.Query), "a delete removing nothing is a generic failure")

	r, err := f.workflow.DeleteUser(testCtx(), "9", "7")
	assert.Nil(t, err)
	assert.Equal(t, StatusNotFound, r.Status)
}

func TestListUsersFailSoft(t *testing.T) {
	f := newFixture()
	acme := createTenant(t, f, "Acme")

	assert.Equal(t, 0, len(f.workflow.ListUsers(testCtx(), "not-a-number")))
	assert.NotNil(t, f.workflow.ListUsers(testCtx(), "42"))
	assert.Empty(t, f.workflow.ListUsers(testCtx(), "42"))

	f.usersOf(t, acme).Error = errors.New("kaboom")
	users := f.workflow.ListUsers(testCtx(), "1")
	assert.NotNil(t, users)
	assert.Empty(t, users)

	f.tenants.Error = errors.New("registry down")
	assert.Empty(t, f.workflow.ListUsers(testCtx(), "1"))
}

func TestGetUser(t *testing.T) {
	f := newFixture()
	createTenant(t, f, "Acme")
	_, _ = f.workflow.CreateUser(testCtx(), "1", "Jo", "jo@x.com")

	u, err := f.workflow.GetUser(testCtx(), "1", "1")
	assert.Nil(t, err)
	assert.Equal(t, "jo@x.com", u.Email)

	for _, ref := range [][2]string{{"1", "2"}, {"2", "1"}, {"x", "1"}, {"1", "x"}} {
		u, err = f.workflow.GetUser(testCtx(), ref[0], ref[1])
		assert.Nil(t, err)
		assert.Nil(t, u)
	}
}

func TestTenantUserScenario(t *testing.T) {
	f := newFixture()
	ctx := testCtx()

	created, err := f.workflow.CreateTenant(ctx, "Acme")
	assert.Nil(t, err)
	tenants, err := f.workflow.ListTenants(ctx)
	assert.Nil(t, err)
	assert.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].Name)
	assert.NotEmpty(t, tenants[0].DatabaseURL)

	tenantRef := "1"
	assert.Equal(t, int64(1), created.Tenant.ID)

	r, err := f.workflow.CreateUser(ctx, tenantRef, "Jo", "jo@x.com")
	assert.Nil(t, err)
	assert.True(t, r.OK())

	users := f.workflow.ListUsers(ctx, tenantRef)
	assert.Len(t, users, 1)
	assert.Equal(t, "jo@x.com", users[0].Email)

	userRef := "1"
	r, err = f.workflow.UpdateUser(ctx, tenantRef, userRef, "Jo", "jo2@x.com")
	assert.Nil(t, err)
	assert.True(t, r.OK())

	u, err := f.workflow.GetUser(ctx, tenantRef, userRef)
	assert.Nil(t, err)
	assert.Equal(t, "jo2@x.com", u.Email)

	r, err = f.workflow.DeleteUser(ctx, tenantRef, userRef)
	assert.Nil(t, err)
	assert.True(t, r.OK())
	assert.Empty(t, f.workflow.ListUsers(ctx, tenantRef))
}
