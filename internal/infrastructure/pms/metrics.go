package pms

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// ClientMetrics counts outbound PMS attempts. A nil *ClientMetrics records nothing.
type ClientMetrics struct {
	reg      *prometheus.Registry
	Attempts *prometheus.CounterVec
	Retries  *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewClientMetrics creates the metric set on its own registry
func NewClientMetrics() *ClientMetrics {
	r := prometheus.NewRegistry()
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pms_client_attempts_total",
		Help: "Outbound PMS request attempts by provider, operation and outcome code.",
	}, []string{"provider", "operation", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pms_client_retries_total",
		Help: "Retries scheduled after a retryable failure.",
	}, []string{"provider", "operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pms_client_failures_total",
		Help: "Calls that failed after all attempts, by final code.",
	}, []string{"provider", "operation", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pms_client_attempt_duration_seconds",
		Help:    "Duration of a single outbound attempt.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	r.MustRegister(attempts, retries, failures, latency)
	return &ClientMetrics{
		reg:      r,
		Attempts: attempts,
		Retries:  retries,
		Failures: failures,
		Latency:  latency,
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *ClientMetrics) observeAttempt(provider integration.ProviderKey, op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "OK"
	if err != nil {
		outcome = integration.CodeOf(err)
	}
	m.Attempts.WithLabelValues(string(provider), op, outcome).Inc()
	m.Latency.WithLabelValues(string(provider), op).Observe(d.Seconds())
}

func (m *ClientMetrics) observeRetry(provider integration.ProviderKey, op string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(string(provider), op).Inc()
}

func (m *ClientMetrics) observeFailure(provider integration.ProviderKey, op string, err error) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(string(provider), op, integration.CodeOf(err)).Inc()
}
