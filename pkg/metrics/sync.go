package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncJobMetrics records metadata for sync worker jobs.
type SyncJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	retried  *prometheus.CounterVec
}

// NewSyncJobMetrics registers the sync job metrics on the provided registerer.
func NewSyncJobMetrics(reg prometheus.Registerer) *SyncJobMetrics {
	if reg == nil {
		return &SyncJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_job_duration_seconds",
		Help:    "Duration of sync jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_job_success",
		Help: "Successful sync job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_job_failure",
		Help: "Failed sync job executions.",
	}, []string{"job"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_retried",
		Help: "Integration sync rows retried, by target.",
	}, []string{"target"})
	reg.MustRegister(duration, success, failure, retried)
	return &SyncJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		retried:  retried,
	}
}

// ObserveDuration records the duration for the named job.
func (s *SyncJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (s *SyncJobMetrics) IncSuccess(job string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (s *SyncJobMetrics) IncFailure(job string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncRetried counts one retried sync row for the target system.
func (s *SyncJobMetrics) IncRetried(target string) {
	if s == nil || s.retried == nil {
		return
	}
	s.retried.WithLabelValues(normalizeLabel(target)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
