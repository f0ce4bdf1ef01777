package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeBusinessRule     = "business_rule"
	SchedulerErrorTypeDB               = "db"
	SchedulerErrorTypeUnknown          = "unknown"
)

// SchedulerMetrics captures reconciliation job health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobTimeouts *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobItems    *prometheus.CounterVec
	runLoopLag  prometheus.Observer
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer)
	})
	return schedulerMetrics
}

func newSchedulerMetrics(registerer prometheus.Registerer) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaseway_scheduler_job_runs_total",
		Help: "Scheduler job runs by name.",
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaseway_scheduler_job_duration_seconds",
		Help:    "Scheduler job duration by name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaseway_scheduler_job_timeouts_total",
		Help: "Scheduler job soft timeouts by name.",
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaseway_scheduler_job_errors_total",
		Help: "Scheduler job errors by name and type.",
	}, []string{"job", "type"})
	jobItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaseway_scheduler_job_items_total",
		Help: "Items processed per job and outcome.",
	}, []string{"job", "outcome"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leaseway_scheduler_run_loop_lag_seconds",
		Help:    "Delay between the scheduled and the actual start of a run.",
		Buckets: prometheus.DefBuckets,
	})

	for _, collector := range []prometheus.Collector{
		jobRuns, jobDuration, jobTimeouts, jobErrors, jobItems, runLoopLag,
	} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &SchedulerMetrics{
		jobRuns:     jobRuns,
		jobDuration: jobDuration,
		jobTimeouts: jobTimeouts,
		jobErrors:   jobErrors,
		jobItems:    jobItems,
		runLoopLag:  runLoopLag,
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, classifyError(err)).Inc()
}

func (m *SchedulerMetrics) IncJobItems(job, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.jobItems.WithLabelValues(job, outcome).Add(float64(n))
}

func (m *SchedulerMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil {
		return
	}
	m.runLoopLag.Observe(lag.Seconds())
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return SchedulerErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SchedulerErrorTypeDeadlineExceeded
	default:
		return SchedulerErrorTypeUnknown
	}
}
