package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/warpvault/vaultmcp/internal/security"
)

// Metrics holds the gateway's Prometheus collectors. Counters are fed
// from audit events so the executors stay unaware of the metrics
// backend.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls       *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
	tokenRefreshes  prometheus.Counter
	authFailures    prometheus.Counter
}

// NewMetrics builds the collectors on a private registry so tests and
// multiple gateways never collide on the default one.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultmcp",
			Name:      "tool_calls_total",
			Help:      "Completed tool invocations by surface, tool, and outcome.",
		}, []string{"surface", "tool", "outcome"}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultmcp",
			Name:      "guard_rejections_total",
			Help:      "Requests rejected by allowlist or validation guards.",
		}, []string{"surface"}),
		tokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultmcp",
			Name:      "token_refreshes_total",
			Help:      "OAuth2 access token exchanges performed.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultmcp",
			Name:      "auth_failures_total",
			Help:      "Failed attempts to obtain an access token.",
		}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.guardRejections,
		m.tokenRefreshes,
		m.authFailures,
	)
	return m
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveAudit maps one audit event onto the counters. Wire it into
// the audit logger's OnEvent hook.
func (m *Metrics) ObserveAudit(e security.AuditEvent) {
	switch e.Type {
	case security.EventToolResult:
		// Every Execute emits exactly one tool_result, so counting here
		// gives one increment per call with the outcome attached.
		outcome := e.Metadata["outcome"]
		if outcome == "" {
			outcome = "success"
		}
		m.toolCalls.WithLabelValues(e.Surface, e.Tool, outcome).Inc()
	case security.EventGuardRejection:
		m.guardRejections.WithLabelValues(e.Surface).Inc()
	case security.EventTokenRefresh:
		m.tokenRefreshes.Inc()
	case security.EventAuthFailure:
		m.authFailures.Inc()
	}
}
