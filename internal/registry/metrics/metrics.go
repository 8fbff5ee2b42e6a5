package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	CredentialsIssued    prometheus.Counter
	CredentialsRevoked   prometheus.Counter
	IssuersAdded         prometheus.Counter
	OwnershipTransfers   prometheus.Counter
	UnauthorizedCalls    *prometheus.CounterVec
	EventPublishFailures prometheus.Counter
	OperationDuration    *prometheus.HistogramVec
}

// New registers the registry collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_registry_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		CredentialsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_registry_credentials_revoked_total",
			Help: "Total number of revoke calls that succeeded",
		}),
		IssuersAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_registry_issuers_added_total",
			Help: "Total number of issuer additions, including repeats",
		}),
		OwnershipTransfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_registry_ownership_transfers_total",
			Help: "Total number of owner changes, including renunciation",
		}),
		UnauthorizedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_registry_unauthorized_total",
			Help: "Mutating calls rejected because the caller lacked the required role",
		}, []string{"operation"}),
		EventPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_registry_event_publish_failures_total",
			Help: "Registry events that could not be handed to the audit publisher",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credo_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementUnauthorized(operation string) {
	m.UnauthorizedCalls.WithLabelValues(operation).Inc()
}
