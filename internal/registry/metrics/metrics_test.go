package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CredentialsIssued.Inc()
	m.IncrementUnauthorized("revoke_credential")
	m.IncrementUnauthorized("revoke_credential")
	m.ObserveOperation("issue_credential", time.Now())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CredentialsIssued))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.UnauthorizedCalls.WithLabelValues("revoke_credential")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "credo_registry_operation_duration_seconds")

	// A second registry accepts the same collector names.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
