// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SSEClients is the number of currently open event stream connections.
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lechange",
		Name:      "sse_clients",
		Help:      "Currently connected event stream clients.",
	})

	// MessagesPublished counts messages accepted and published to the broker.
	MessagesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lechange",
		Name:      "messages_published_total",
		Help:      "Messages persisted and handed to the broker.",
	})

	// FanoutDropped counts per-client deliveries skipped because the
	// client channel was full.
	FanoutDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lechange",
		Name:      "fanout_dropped_total",
		Help:      "Message deliveries dropped due to slow clients.",
	})

	// BrokerFallbacks counts publishes that bypassed NATS because the
	// circuit breaker was open.
	BrokerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lechange",
		Name:      "broker_fallbacks_total",
		Help:      "Publishes served by in-process fan-out while the broker breaker was open.",
	})

	// NotificationsCreated counts notification rows written, by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lechange",
		Name:      "notifications_created_total",
		Help:      "Notifications created.",
	}, []string{"kind"})

	// RetentionPurged counts rows removed by the retention sweeper.
	RetentionPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lechange",
		Name:      "retention_purged_total",
		Help:      "Rows purged by the retention sweeper.",
	}, []string{"table"})
)
