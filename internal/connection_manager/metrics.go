package connection_manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type managerMetrics struct {
	acquisitionCounter      *prometheus.CounterVec
	openDuration            *prometheus.HistogramVec
	liveConnectionGauge     *prometheus.GaugeVec
	adoptedSessionGauge     prometheus.Gauge
	credentialCacheHit      prometheus.Counter
	credentialCacheMiss     prometheus.Counter
	reportedErrorCounter    *prometheus.CounterVec
	supersededReportCounter *prometheus.CounterVec
	invalidationCounter     *prometheus.CounterVec
	sessionCloseErrorCount  prometheus.Counter
}

func newMetrics() *managerMetrics {
	m := new(managerMetrics)

	m.acquisitionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_connection_acquisition_count",
		Help: "The number of capability server connection acquisitions by outcome",
	}, []string{"integration", "outcome"})

	m.openDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "agentic_backend_connection_open_duration",
		Help: "The amount of time opening a capability server session took",
	}, []string{"integration"})

	m.liveConnectionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agentic_backend_registered_connection_count",
		Help: "The number of connections currently held in the registry",
	}, []string{"integration"})

	m.adoptedSessionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentic_backend_open_session_count",
		Help: "The number of sessions owned by the lifecycle manager",
	})

	m.credentialCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_credential_cache_hit",
		Help: "The number of credential cache hits",
	})

	m.credentialCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_credential_cache_miss",
		Help: "The number of credential cache misses",
	})

	m.reportedErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_reported_connection_error_count",
		Help: "The number of connection errors reported by the agent runtime",
	}, []string{"integration"})

	m.supersededReportCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_superseded_connection_error_count",
		Help: "The number of connection errors reported against a connection that had already been replaced",
	}, []string{"integration"})

	m.invalidationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_connection_invalidation_count",
		Help: "The number of registry invalidations by reason",
	}, []string{"integration", "reason"})

	m.sessionCloseErrorCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_session_close_error_count",
		Help: "The number of sessions that failed to close during shutdown",
	})

	return m
}

var (
	metrics = newMetrics()
)
