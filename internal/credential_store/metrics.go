package credential_store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type credentialStoreMetrics struct {
	sqlQuickbooksLookupDuration    prometheus.Histogram
	sqlGoogleSheetsLookupDuration  prometheus.Histogram
	secretsManagerLookupDuration   prometheus.Histogram
	expiredCredentialCounter       *prometheus.CounterVec
	databaseConnectionErrorCounter prometheus.Counter
}

var metrics *credentialStoreMetrics

func init() {
	metrics = new(credentialStoreMetrics)

	metrics.sqlQuickbooksLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "agentic_backend_sql_lookup_quickbooks_credentials_duration",
		Help: "The amount of time it took to lookup quickbooks credentials",
	})

	metrics.sqlGoogleSheetsLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "agentic_backend_sql_lookup_google_sheets_credentials_duration",
		Help: "The amount of time it took to lookup google sheets credentials",
	})

	metrics.secretsManagerLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "agentic_backend_secrets_manager_lookup_credentials_duration",
		Help: "The amount of time it took to lookup credentials in secrets manager",
	})

	metrics.expiredCredentialCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_expired_credential_count",
		Help: "The number of credential lookups that found an expired token",
	}, []string{"integration"})

	metrics.databaseConnectionErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentic_backend_credential_store_database_connection_error_count",
		Help: "The number of credential lookups that failed because the database was unreachable",
	})
}
