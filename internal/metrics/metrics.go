package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ControlPlaneRequests counts control plane calls by operation and HTTP status
	ControlPlaneRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provisioner_control_plane_requests_total",
			Help: "Total number of control plane requests",
		},
		[]string{"operation", "status"},
	)

	// ControlPlaneDuration observes control plane call latency
	ControlPlaneDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_provisioner_control_plane_request_duration_seconds",
			Help:    "Duration of control plane requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// WorkflowOutcomes counts workflow operations by result status
	WorkflowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provisioner_workflow_outcomes_total",
			Help: "Total number of workflow operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// TenantClients tracks the number of cached tenant database clients
	TenantClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenant_provisioner_tenant_clients",
			Help: "Number of cached tenant database clients",
		},
	)

	// EventsPublished counts tenant lifecycle events by type and result
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provisioner_events_published_total",
			Help: "Total number of tenant lifecycle events published",
		},
		[]string{"event_type", "result"},
	)
)
