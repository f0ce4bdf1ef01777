package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func counterValue(family *dto.MetricFamily, labels map[string]string) float64 {
	if family == nil {
		return 0
	}
	for _, metric := range family.GetMetric() {
		matched := true
		for _, pair := range metric.GetLabel() {
			if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
				matched = false
				break
			}
		}
		if matched {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry)

	m.IncJobRun("activation_sweep")
	m.IncJobRun("activation_sweep")
	m.IncJobRun("rent_generation")
	m.IncJobTimeout("rent_generation")
	m.IncJobItems("activation_sweep", "activated", 3)
	m.IncJobItems("activation_sweep", "activated", 0)
	m.ObserveJobDuration("activation_sweep", 120*time.Millisecond)

	runs := gatherFamily(t, registry, "leaseway_scheduler_job_runs_total")
	require.NotNil(t, runs)
	require.Equal(t, float64(2), counterValue(runs, map[string]string{"job": "activation_sweep"}))
	require.Equal(t, float64(1), counterValue(runs, map[string]string{"job": "rent_generation"}))

	timeouts := gatherFamily(t, registry, "leaseway_scheduler_job_timeouts_total")
	require.Equal(t, float64(1), counterValue(timeouts, map[string]string{"job": "rent_generation"}))

	items := gatherFamily(t, registry, "leaseway_scheduler_job_items_total")
	require.Equal(t, float64(3), counterValue(items, map[string]string{"job": "activation_sweep", "outcome": "activated"}))

	duration := gatherFamily(t, registry, "leaseway_scheduler_job_duration_seconds")
	require.NotNil(t, duration)
	require.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestSchedulerMetricsErrorClassification(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry)

	m.IncJobError("expiry_sweep", context.DeadlineExceeded)
	m.IncJobError("expiry_sweep", errors.New("connection refused"))

	family := gatherFamily(t, registry, "leaseway_scheduler_job_errors_total")
	require.Equal(t, float64(1), counterValue(family, map[string]string{
		"job": "expiry_sweep", "type": SchedulerErrorTypeDeadlineExceeded,
	}))
	require.Equal(t, float64(1), counterValue(family, map[string]string{
		"job": "expiry_sweep", "type": SchedulerErrorTypeUnknown,
	}))
}

func TestSchedulerMetricsDoubleRegister(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Registering the same collectors twice must reuse, not panic.
	require.NotPanics(t, func() {
		newSchedulerMetrics(registry)
		newSchedulerMetrics(registry)
	})
}

func TestSchedulerMetricsNilReceiver(t *testing.T) {
	var m *SchedulerMetrics

	require.NotPanics(t, func() {
		m.IncJobRun("activation_sweep")
		m.IncJobTimeout("activation_sweep")
		m.IncJobError("activation_sweep", errors.New("boom"))
		m.IncJobItems("activation_sweep", "activated", 1)
		m.ObserveJobDuration("activation_sweep", time.Second)
		m.ObserveRunLoopLag(time.Second)
	})
}
