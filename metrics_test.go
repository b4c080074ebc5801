package rolewatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsCollector tests that dispatch counters are exported
func TestMetricsCollector(t *testing.T) {
	f := newFixture(t)
	editor := f.role(t, "editor")
	viewer := f.role(t, "viewer")
	user := f.principal(t)

	require.NoError(t, f.service.AssignRoles(f.ctx, user, editor))
	user.DisableEvents(KindRole)
	require.NoError(t, f.service.AssignRoles(f.ctx, user, viewer))

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(NewMetricsCollector(f.service, "app")))

	families, err := registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}

	assert.Equal(t, map[string]float64{
		"app_rolewatch_events_dispatched_total": 1,
		"app_rolewatch_events_propagated_total": 0,
		"app_rolewatch_events_suppressed_total": 1,
		"app_rolewatch_events_deferred_total":   0,
		"app_rolewatch_delivery_failures_total": 0,
	}, values)
}
