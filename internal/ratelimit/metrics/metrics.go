package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejected    *prometheus.CounterVec
	TrackedKeys prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter, by key kind",
		}, []string{"key_kind"}),
		TrackedKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credo_ratelimit_tracked_keys",
			Help: "Number of keys with a live token bucket",
		}),
	}
}

func (m *Metrics) IncrementRejected(keyKind string) {
	m.Rejected.WithLabelValues(keyKind).Inc()
}

func (m *Metrics) SetTrackedKeys(n int) {
	m.TrackedKeys.Set(float64(n))
}
