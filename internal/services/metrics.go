package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram

	// Gateway metrics
	GatewayCalls     *prometheus.CounterVec
	GatewayLatency   prometheus.Histogram
	GatewayFallbacks *prometheus.CounterVec

	// Workflow and proposal metrics
	WorkflowRuns prometheus.Counter
	Proposals    *prometheus.CounterVec
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aihq_chat_requests_total",
			Help: "Total number of chat requests processed",
		}),

		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aihq_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		GatewayCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aihq_gateway_calls_total",
			Help: "Total number of provider gateway calls by provider, kind and outcome",
		}, []string{"provider", "kind", "outcome"}),

		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aihq_gateway_call_duration_seconds",
			Help:    "Provider gateway call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		GatewayFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aihq_gateway_fallbacks_total",
			Help: "Total number of single-shot fallback retries by provider",
		}, []string{"provider"}),

		WorkflowRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aihq_workflow_runs_total",
			Help: "Total number of multi-provider workflow runs",
		}),

		Proposals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aihq_proposals_total",
			Help: "Total number of proposal lifecycle events by outcome",
		}, []string{"outcome"}), // "proposed", "staged", "rejected"
	}
}
