package main

import (
	"sync"

	"github.com/RedHatInsights/tenant_provisioner/config"
	"github.com/RedHatInsights/tenant_provisioner/internal/events"
	"github.com/RedHatInsights/tenant_provisioner/internal/provisioning"
	log "github.com/sirupsen/logrus"
)

// startEventListener follows tenant changes made by other replicas. Every
// replica consumes with its own group id so each one sees all events.
func startEventListener(cfg *config.TenantProvisionerConfig, workflow *provisioning.Workflow, shutdown chan struct{}, wg *sync.WaitGroup) error {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("No Kafka brokers configured, tenant events are disabled")
		return nil
	}
	groupID := cfg.KafkaGroupID + "-" + cfg.Hostname
	l, err := events.NewListener(cfg.KafkaBrokers, groupID, cfg.KafkaTopic, workflow.HandleEvent)
	if err != nil {
		return err
	}
	wg.Add(1)
	go l.Run(shutdown, wg)
	log.Infof("Listening for tenant events on %s as %s", cfg.KafkaTopic, groupID)
	return nil
}
