package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"

	"github.com/spf13/viper"
)

// TenantProvisionerConfig represents the runtime configuration
type TenantProvisionerConfig struct {
	Hostname             string
	DatabaseHostname     string
	DatabasePort         int
	DatabaseName         string
	DatabaseUsername     string
	DatabasePassword     string
	DatabaseSSLMode      string
	ControlPlaneURL      string
	ControlPlaneAPIKey   string
	ControlPlaneOrgID    string
	ControlPlaneRegionID string
	ControlPlaneTimeout  time.Duration
	KafkaBrokers         []string
	KafkaGroupID         string
	KafkaTopic           string
	KafkaDeliveryTimeout time.Duration
	TenantListingTTL     time.Duration
	WebPort              int
	MetricsPort          int
	RequireIdentity      bool
	OpenshiftBuildCommit string
	Version              string
	LogGroup             string
	LogLevel             string
	AwsRegion            string
	AwsAccessKeyId       string
	AwsSecretAccessKey   string
	UseClowder           bool
}

// DefaultRegionID is used when no control plane region is configured
const DefaultRegionID = "aws-us-east-1"

// Get returns an initialized TenantProvisionerConfig
func Get() *TenantProvisionerConfig {
	// a local .env is optional
	_ = godotenv.Load()

	options := viper.New()
	options.SetDefault("KafkaBrokers", []string{})

	if os.Getenv("CLOWDER_ENABLED") == "true" {
		cfg := clowder.LoadedConfig

		options.SetDefault("DatabaseHostname", cfg.Database.Hostname)
		options.SetDefault("DatabasePort", cfg.Database.Port)
		options.SetDefault("DatabaseName", cfg.Database.Name)
		options.SetDefault("DatabaseUsername", cfg.Database.Username)
		options.SetDefault("DatabasePassword", cfg.Database.Password)
		options.SetDefault("DatabaseSSLMode", "require")
		options.SetDefault("WebPort", cfg.WebPort)
		options.SetDefault("MetricsPort", cfg.MetricsPort)
		if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0].Port != nil {
			options.SetDefault("KafkaBrokers", []string{fmt.Sprintf("%s:%v", cfg.Kafka.Brokers[0].Hostname, *cfg.Kafka.Brokers[0].Port)})
		}
		options.SetDefault("LogGroup", cfg.Logging.Cloudwatch.LogGroup)
		options.SetDefault("AwsRegion", cfg.Logging.Cloudwatch.Region)
		options.SetDefault("AwsAccessKeyId", cfg.Logging.Cloudwatch.AccessKeyId)
		options.SetDefault("AwsSecretAccessKey", cfg.Logging.Cloudwatch.SecretAccessKey)
	} else {
		options.SetDefault("WebPort", 3000)
		options.SetDefault("MetricsPort", 8080)
		if host := os.Getenv("QUEUE_HOST"); host != "" {
			options.SetDefault("KafkaBrokers", []string{fmt.Sprintf("%s:%s", host, os.Getenv("QUEUE_PORT"))})
		}
		options.SetDefault("LogGroup", "platform-dev")
		options.SetDefault("AwsRegion", "us-east-1")
		options.SetDefault("AwsAccessKeyId", os.Getenv("CW_AWS_ACCESS_KEY_ID"))
		options.SetDefault("AwsSecretAccessKey", os.Getenv("CW_AWS_SECRET_ACCESS_KEY"))
		options.SetDefault("DatabaseHostname", os.Getenv("DATABASE_HOST"))
		port, err := strconv.Atoi(os.Getenv("DATABASE_PORT"))
		if err != nil {
			options.SetDefault("DatabasePort", 5432)
		} else {
			options.SetDefault("DatabasePort", port)
		}
		options.SetDefault("DatabaseUsername", os.Getenv("DATABASE_USER"))
		options.SetDefault("DatabasePassword", os.Getenv("DATABASE_PASSWORD"))
		options.SetDefault("DatabaseName", os.Getenv("DATABASE_NAME"))
		options.SetDefault("DatabaseSSLMode", "disable")
	}

	options.SetDefault("ControlPlaneURL", "https://console.neon.tech/api/v2")
	options.SetDefault("ControlPlaneAPIKey", os.Getenv("NEON_API_KEY"))
	options.SetDefault("ControlPlaneOrgID", os.Getenv("NEON_ORG_ID"))
	options.SetDefault("ControlPlaneRegionID", os.Getenv("NEON_REGION_ID"))
	options.SetDefault("ControlPlaneTimeout", 30*time.Second)
	options.SetDefault("KafkaTopic", "platform.tenant-provisioner.events")
	options.SetDefault("KafkaGroupID", "tenant_provisioner")
	options.SetDefault("KafkaDeliveryTimeout", 5*time.Second)
	options.SetDefault("TenantListingTTL", 30*time.Second)
	options.SetDefault("LogLevel", "INFO")
	options.SetDefault("RequireIdentity", false)
	options.SetEnvPrefix("TENANT_PROVISIONER")
	options.AutomaticEnv()
	kubenv := viper.New()
	kubenv.SetDefault("Openshift_Build_Commit", "notrunninginopenshift")
	kubenv.SetDefault("Hostname", "Hostname_Unavailable")
	kubenv.AutomaticEnv()

	regionID := options.GetString("ControlPlaneRegionID")
	if regionID == "" {
		regionID = DefaultRegionID
	}

	return &TenantProvisionerConfig{
		Hostname:             kubenv.GetString("Hostname"),
		DatabaseHostname:     options.GetString("DatabaseHostname"),
		DatabasePort:         options.GetInt("DatabasePort"),
		DatabaseName:         options.GetString("DatabaseName"),
		DatabaseUsername:     options.GetString("DatabaseUsername"),
		DatabasePassword:     options.GetString("DatabasePassword"),
		DatabaseSSLMode:      options.GetString("DatabaseSSLMode"),
		ControlPlaneURL:      options.GetString("ControlPlaneURL"),
		ControlPlaneAPIKey:   options.GetString("ControlPlaneAPIKey"),
		ControlPlaneOrgID:    options.GetString("ControlPlaneOrgID"),
		ControlPlaneRegionID: regionID,
		ControlPlaneTimeout:  options.GetDuration("ControlPlaneTimeout"),
		KafkaBrokers:         options.GetStringSlice("KafkaBrokers"),
		KafkaGroupID:         options.GetString("KafkaGroupID"),
		KafkaTopic:           options.GetString("KafkaTopic"),
		KafkaDeliveryTimeout: options.GetDuration("KafkaDeliveryTimeout"),
		TenantListingTTL:     options.GetDuration("TenantListingTTL"),
		WebPort:              options.GetInt("WebPort"),
		MetricsPort:          options.GetInt("MetricsPort"),
		RequireIdentity:      options.GetBool("RequireIdentity"),
		OpenshiftBuildCommit: kubenv.GetString("Openshift_Build_Commit"),
		Version:              "1.0.0",
		LogGroup:             options.GetString("LogGroup"),
		LogLevel:             options.GetString("LogLevel"),
		AwsRegion:            options.GetString("AwsRegion"),
		AwsAccessKeyId:       options.GetString("AwsAccessKeyId"),
		AwsSecretAccessKey:   options.GetString("AwsSecretAccessKey"),
		UseClowder:           os.Getenv("CLOWDER_ENABLED") == "true",
	}
}

// DatabaseDSN returns the connection string for the tenant registry database
func (c *TenantProvisionerConfig) DatabaseDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.DatabaseUsername,
		c.DatabasePassword,
		c.DatabaseHostname,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode)
}
