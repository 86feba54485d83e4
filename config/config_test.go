package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetControlPlaneSettings(t *testing.T) {
	t.Setenv("CLOWDER_ENABLED", "false")
	t.Setenv("NEON_API_KEY", "secret-key")
	t.Setenv("NEON_ORG_ID", "org-123")
	t.Setenv("NEON_REGION_ID", "")

	cfg := Get()
	assert.Equal(t, "secret-key", cfg.ControlPlaneAPIKey)
	assert.Equal(t, "org-123", cfg.ControlPlaneOrgID)
	assert.Equal(t, DefaultRegionID, cfg.ControlPlaneRegionID, "region should fall back to the default")
	assert.Equal(t, "https://console.neon.tech/api/v2", cfg.ControlPlaneURL)
	assert.Equal(t, 30*time.Second, cfg.ControlPlaneTimeout)
	assert.Equal(t, 5*time.Second, cfg.KafkaDeliveryTimeout)
	assert.Equal(t, 30*time.Second, cfg.TenantListingTTL)
	assert.Equal(t, 3000, cfg.WebPort)
	assert.False(t, cfg.UseClowder)
}

func TestGetRegionOverride(t *testing.T) {
	t.Setenv("CLOWDER_ENABLED", "false")
	t.Setenv("NEON_REGION_ID", "aws-eu-central-1")

	cfg := Get()
	assert.Equal(t, "aws-eu-central-1", cfg.ControlPlaneRegionID)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &TenantProvisionerConfig{
		DatabaseUsername: "admin",
		DatabasePassword: "pw",
		DatabaseHostname: "db.local",
		DatabasePort:     5432,
		DatabaseName:     "registry",
		DatabaseSSLMode:  "disable",
	}
	assert.Equal(t, "postgresql://admin:pw@db.local:5432/registry?sslmode=disable", cfg.DatabaseDSN())
}
