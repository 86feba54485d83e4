// Package controlplane talks to the managed database provider's control plane
// API. Each tenant maps to one remote project holding a single database.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/internal/apperrors"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/metrics"
	"github.com/tidwall/gjson"
)

// Client is the set of control plane operations the provisioner uses
type Client interface {
	CreateDatabase(ctx context.Context, name string) (*Database, error)
	RenameDatabase(ctx context.Context, resourceID, newName string) error
	DeleteDatabase(ctx context.Context, resourceID string) error
	GetDatabase(ctx context.Context, resourceID string) (*Database, error)
	ListDatabases(ctx context.Context) ([]Database, error)
	ResolveResourceID(connectionString string) (string, error)
}

// Database describes a remote database instance
type Database struct {
	ResourceID       string    `json:"id"`
	Name             string    `json:"name"`
	RegionID         string    `json:"region_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ConnectionString string    `json:"-"`
	// Raw is the project document as returned by the control plane
	Raw []byte `json:"-"`
}

// Config holds the control plane endpoint and credentials
type Config struct {
	BaseURL  string
	APIKey   string
	OrgID    string
	RegionID string
}

type defaultClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a control plane client. A missing API key is a
// configuration error reported here rather than on the first call.
func NewClient(cfg Config, httpClient *http.Client) (Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ConfigurationError("controlplane.NewClient", errors.New("control plane API key is not configured"))
	}
	if cfg.BaseURL == "" {
		return nil, apperrors.ConfigurationError("controlplane.NewClient", errors.New("control plane URL is not configured"))
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &defaultClient{cfg: cfg, httpClient: httpClient}, nil
}

type projectRequest struct {
	Project projectSettings `json:"project"`
}

type projectSettings struct {
	Name     string `json:"name"`
	OrgID    string `json:"org_id,omitempty"`
	RegionID string `json:"region_id,omitempty"`
}

// CreateDatabase provisions a new project with the given display name and
// assembles the connection string from the credentials it was issued
func (c *defaultClient) CreateDatabase(ctx context.Context, name string) (*Database, error) {
	const op = "controlplane.CreateDatabase"
	glog := logger.GetLogger(ctx)
	if c.cfg.OrgID == "" {
		return nil, apperrors.ConfigurationError(op, errors.New("control plane organization id is not configured"))
	}

	glog.Infof("Creating remote database %s in region %s", name, c.cfg.RegionID)
	body, err := c.do(ctx, "create", http.MethodPost, "/projects", projectRequest{
		Project: projectSettings{Name: name, OrgID: c.cfg.OrgID, RegionID: c.cfg.RegionID},
	})
	if err != nil {
		return nil, err
	}

	project := gjson.GetBytes(body, "project")
	host := gjson.GetBytes(body, "endpoints.0.host").String()
	dbName := gjson.GetBytes(body, "databases.0.name").String()
	role := gjson.GetBytes(body, "roles.0.name").String()
	password := gjson.GetBytes(body, "roles.0.password").String()
	if !project.Exists() || host == "" || dbName == "" || role == "" {
		glog.Errorf("Create response is missing project %v endpoint %v database %v role %v",
			project.Exists(), host != "", dbName != "", role != "")
		return nil, apperrors.ProvisioningError(op, errors.New("response is missing endpoint, database or role"))
	}

	db := databaseFromJSON(project)
	db.ConnectionString = ConnectionString(role, password, host, dbName)
	glog.Infof("Created remote database %s endpoint %s", db.ResourceID, host)
	return db, nil
}

// RenameDatabase updates the display name of a remote project
func (c *defaultClient) RenameDatabase(ctx context.Context, resourceID, newName string) error {
	_, err := c.do(ctx, "rename", http.MethodPatch, "/projects/"+url.PathEscape(resourceID), projectRequest{
		Project: projectSettings{Name: newName},
	})
	return err
}

// DeleteDatabase destroys a remote project. A second delete of the same id
// is reported by the control plane as an error.
func (c *defaultClient) DeleteDatabase(ctx context.Context, resourceID string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, "/projects/"+url.PathEscape(resourceID), nil)
	return err
}

// GetDatabase fetches a single remote project
func (c *defaultClient) GetDatabase(ctx context.Context, resourceID string) (*Database, error) {
	body, err := c.do(ctx, "get", http.MethodGet, "/projects/"+url.PathEscape(resourceID), nil)
	if err != nil {
		return nil, err
	}
	project := gjson.GetBytes(body, "project")
	if !project.Exists() {
		return nil, apperrors.ProvisioningError("controlplane.GetDatabase", errors.New("response has no project"))
	}
	return databaseFromJSON(project), nil
}

// ListDatabases lists the remote projects visible to the API key
func (c *defaultClient) ListDatabases(ctx context.Context) ([]Database, error) {
	body, err := c.do(ctx, "list", http.MethodGet, "/projects", nil)
	if err != nil {
		return nil, err
	}
	var dbs []Database
	gjson.GetBytes(body, "projects").ForEach(func(_, value gjson.Result) bool {
		dbs = append(dbs, *databaseFromJSON(value))
		return true
	})
	return dbs, nil
}

// ResolveResourceID guesses the resource id from a connection string host
func (c *defaultClient) ResolveResourceID(connectionString string) (string, error) {
	return ResolveResourceID(connectionString)
}

func (c *defaultClient) do(ctx context.Context, operation, method, path string, payload interface{}) ([]byte, error) {
	op := "controlplane." + operation
	glog := logger.GetLogger(ctx)

	var reqBody *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			glog.Errorf("Error Marshaling Payload %v", err)
			return nil, apperrors.ProvisioningError(op, err)
		}
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		glog.Errorf("Error creating a new request %v", err)
		return nil, apperrors.ProvisioningError(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ControlPlaneDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ControlPlaneRequests.WithLabelValues(operation, "error").Inc()
		glog.Errorf("Error processing request %s %s %v", method, path, err)
		return nil, apperrors.ProvisioningError(op, err)
	}
	defer resp.Body.Close()
	metrics.ControlPlaneRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		glog.Errorf("Error reading body %v", err)
		return nil, apperrors.ProvisioningError(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("Invalid HTTP Status code %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
		glog.Errorf("Control plane %s %s failed %v", method, path, err)
		return nil, apperrors.ProvisioningError(op, err)
	}
	glog.Debugf("Control plane %s %s status %d", method, path, resp.StatusCode)
	return body, nil
}

func databaseFromJSON(project gjson.Result) *Database {
	db := &Database{
		ResourceID: project.Get("id").String(),
		Name:       project.Get("name").String(),
		RegionID:   project.Get("region_id").String(),
		CreatedAt:  project.Get("created_at").Time(),
		UpdatedAt:  project.Get("updated_at").Time(),
		Raw:        []byte(project.Raw),
	}
	return db
}

// ConnectionString builds a TLS-required postgres URL from issued credentials
func ConnectionString(role, password, host, dbName string) string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(role, password),
		Host:     host,
		Path:     "/" + dbName,
		RawQuery: "sslmode=require",
	}
	return u.String()
}
