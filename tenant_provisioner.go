package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/config"
	"github.com/RedHatInsights/tenant_provisioner/internal/api"
	"github.com/RedHatInsights/tenant_provisioner/internal/controlplane"
	"github.com/RedHatInsights/tenant_provisioner/internal/events"
	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
	"github.com/RedHatInsights/tenant_provisioner/internal/models/tenant"
	"github.com/RedHatInsights/tenant_provisioner/internal/provisioning"
	"github.com/RedHatInsights/tenant_provisioner/internal/tenantdb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "tenant_provisioner",
	Short: "Provision tenant databases and manage their users",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics, probes and the event listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(config.Get())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tenant registry schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate(config.Get())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openRegistry(cfg *config.TenantProvisionerConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the tenant registry %s: %w", logger.MaskDSN(cfg.DatabaseDSN()), err)
	}
	return db, nil
}

func migrate(cfg *config.TenantProvisionerConfig) error {
	log := logger.InitLogger(cfg)
	db, err := openRegistry(cfg)
	if err != nil {
		log.Error(err)
		return err
	}
	if err := db.AutoMigrate(&tenant.Tenant{}); err != nil {
		log.Errorf("Error migrating tenant registry %v", err)
		return err
	}
	log.Info("Tenant registry migrated")
	return nil
}

func serve(cfg *config.TenantProvisionerConfig) error {
	log := logger.InitLogger(cfg)
	log.Info("Starting Tenant Provisioner")
	defer log.Info("Finished Tenant Provisioner")

	isReady := &atomic.Value{}
	isReady.Store(false)

	go startPrometheus(cfg)

	expvar.Publish("goroutines", expvar.Func(func() interface{} {
		return fmt.Sprintf("%d", runtime.NumGoroutine())
	}))

	cp, err := controlplane.NewClient(controlplane.Config{
		BaseURL:  cfg.ControlPlaneURL,
		APIKey:   cfg.ControlPlaneAPIKey,
		OrgID:    cfg.ControlPlaneOrgID,
		RegionID: cfg.ControlPlaneRegionID,
	}, &http.Client{Timeout: cfg.ControlPlaneTimeout})
	if err != nil {
		log.Errorf("Control plane is not configured %v", err)
		return err
	}
	if cfg.ControlPlaneOrgID == "" {
		log.Warn("NEON_ORG_ID is not set, tenant creation will fail")
	}

	db, err := openRegistry(cfg)
	if err != nil {
		log.Error(err)
		return err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Errorf("Error creating event publisher %v", err)
		return err
	}
	defer publisher.Close()

	router := tenantdb.NewRouter(nil)
	workflow := provisioning.New(provisioning.Options{
		Tenants:      tenant.NewGORMRepository(db),
		ControlPlane: cp,
		Router:       router,
		Initializer:  tenantdb.NewInitializer(router),
		Publisher:    publisher,
		ListingTTL:   cfg.TenantListingTTL,
	})

	sigs := make(chan os.Signal, 1)
	shutdown := make(chan struct{})
	var workerGroup sync.WaitGroup
	var once sync.Once
	stop := func() { once.Do(func() { close(shutdown) }) }
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	if err := startEventListener(cfg, workflow, shutdown, &workerGroup); err != nil {
		log.Errorf("Error starting event listener %v", err)
		return err
	}

	mux := http.NewServeMux()
	addProbes(mux, isReady)
	mux.Handle("/", api.NewServer(workflow, cfg.RequireIdentity))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WebPort), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server stopped %v", err)
			stop()
		}
	}()
	isReady.Store(true)
	log.Infof("Listening on port %d", cfg.WebPort)

	select {
	case sig := <-sigs:
		log.Infof("Received signal %v", sig)
		stop()
	case <-shutdown:
	}

	isReady.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down HTTP server %v", err)
	}
	workerGroup.Wait()
	return nil
}

func newPublisher(cfg *config.TenantProvisionerConfig) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewNoopPublisher(), nil
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaDeliveryTimeout)
}

func startPrometheus(cfg *config.TenantProvisionerConfig) {
	prometheusMux := http.NewServeMux()
	prometheusMux.Handle("/metrics", promhttp.Handler())
	prometheusMux.Handle("/debug/vars", expvar.Handler())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), prometheusMux); err != nil {
		logger.Log.Errorf("Metrics server stopped %v", err)
	}
}

func addProbes(mux *http.ServeMux, isReady *atomic.Value) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !isReady.Load().(bool) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
