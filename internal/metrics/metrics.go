// Package metrics defines and registers all custom Prometheus metrics for the
// storefront client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry through promauto on
// package initialisation; the sandbox server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Outbound request metrics ─────────────────────────────────────────────────

// RequestsTotal counts completed API client calls.
// Labels:
//   - service: the backend addressed ("auth", "products", "orders", "payments", "analytics")
//   - method:  HTTP method
//   - outcome: "ok" or the failure kind ("transport", "status", "decode", "invalid")
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of API client requests, by service, method and outcome.",
	},
	[]string{"service", "method", "outcome"},
)

// RequestDuration measures the wall time of a call from send to parsed body.
// Labels:
//   - service: the backend addressed
//   - method:  HTTP method
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_request_duration_seconds",
		Help:      "Duration of API client requests including body parsing.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "method"},
)

// RequestsInFlight tracks calls that have been sent but not yet answered.
var RequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "client_requests_in_flight",
		Help:      "API client requests awaiting a response.",
	},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Labels:
//   - state: the state entered ("authenticated", "unauthenticated")
//   - cause: "bootstrap", "login", "register", "logout", "revalidate"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by entered state and cause.",
	},
	[]string{"state", "cause"},
)

// ── Refresh event metrics ────────────────────────────────────────────────────

// RefreshEventsTotal counts invalidations published after mutations.
// Labels:
//   - resource: e.g. "orders"
//   - action:   e.g. "cancel"
var RefreshEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_events_total",
		Help:      "Total number of refresh events published, by resource and action.",
	},
	[]string{"resource", "action"},
)

// RefreshHandlerErrorsTotal counts refresh handlers that returned an error.
var RefreshHandlerErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_handler_errors_total",
		Help:      "Total number of refresh handlers that failed, by resource.",
	},
	[]string{"resource"},
)

// RefreshQueueDepth tracks events waiting in each dispatcher worker channel.
var RefreshQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refresh_queue_depth",
		Help:      "Current number of refresh events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ReportsExportedTotal counts archived CSV reports by backend bucket.
var ReportsExportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_exported_total",
		Help:      "Total number of sales reports archived, by bucket.",
	},
	[]string{"bucket"},
)
