// Package metrics provides Prometheus metrics for the garb outfit service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the garb service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Agent observability - the concrete sink for every orchestration
	// transition: (agent, action, success) plus duration.
	agentActions        *prometheus.CounterVec
	agentActionDuration *prometheus.HistogramVec

	// Planning metrics
	planningRuns     *prometheus.CounterVec
	planningDuration prometheus.Histogram
	candidateCount   prometheus.Gauge
	scoringErrors    prometheus.Counter

	// Preference metrics
	feedbackApplied  *prometheus.CounterVec
	feedbackRejected prometheus.Counter
	feedbackQueue    prometheus.Gauge

	// Scheduler metrics
	schedulerTicks   *prometheus.CounterVec
	schedulerSkips   *prometheus.CounterVec
	schedulerRunTime *prometheus.HistogramVec

	// Collaborator metrics
	collaboratorCalls   *prometheus.CounterVec
	collaboratorRetries *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Handler exposes the custom registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "garb",
		subsystem:        "outfit",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.agentActions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "agent_actions_total",
			Help:      "Total agent actions by agent, action, and success",
		},
		[]string{"agent", "action", "success"},
	)

	m.agentActionDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "agent_action_duration_milliseconds",
			Help:      "Agent action duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"agent", "action"},
	)

	m.planningRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "planning_runs_total",
			Help:      "Total planning requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	m.planningDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "planning_duration_milliseconds",
		Help:      "Candidate enumeration and scoring duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.candidateCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_count",
		Help:      "Number of candidates enumerated in the latest planning run",
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total scoring faults; these are logic bugs, never retried",
	})

	m.feedbackApplied = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "feedback_applied_total",
			Help:      "Total feedback events folded into preference profiles",
		},
		[]string{"outcome"},
	)

	m.feedbackRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_rejected_total",
		Help:      "Total feedback events rejected at the boundary",
	})

	m.feedbackQueue = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_queue_size",
		Help:      "Current number of queued feedback events awaiting application",
	})

	m.schedulerTicks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scheduler_ticks_total",
			Help:      "Total scheduler ticks fired by cadence",
		},
		[]string{"cadence"},
	)

	m.schedulerSkips = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scheduler_skips_total",
			Help:      "Total scheduler ticks skipped because the previous run was in flight",
		},
		[]string{"cadence"},
	)

	m.schedulerRunTime = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scheduler_run_duration_milliseconds",
			Help:      "Scheduled job run duration in milliseconds by cadence",
			Buckets:   m.histogramBuckets,
		},
		[]string{"cadence"},
	)

	m.collaboratorCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "collaborator_calls_total",
			Help:      "Total collaborator calls by collaborator and result",
		},
		[]string{"collaborator", "result"},
	)

	m.collaboratorRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "collaborator_retries_total",
			Help:      "Total collaborator call retries by collaborator",
		},
		[]string{"collaborator"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers over the global manager.

// RecordAgentAction records one orchestration transition.
func RecordAgentAction(agent, action string, success bool, durationMs float64) {
	label := "false"
	if success {
		label = "true"
	}
	globalManager.agentActions.WithLabelValues(agent, action, label).Inc()
	globalManager.agentActionDuration.WithLabelValues(agent, action).Observe(durationMs)
}

// RecordPlanningRun records a terminal planning outcome (completed, or an
// error kind for failures).
func RecordPlanningRun(outcome string) {
	globalManager.planningRuns.WithLabelValues(outcome).Inc()
}

// RecordPlanningDuration records candidate generation and scoring time.
func RecordPlanningDuration(durationMs float64) {
	globalManager.planningDuration.Observe(durationMs)
}

// UpdateCandidateCount publishes the size of the latest candidate set.
func UpdateCandidateCount(n int) {
	globalManager.candidateCount.Set(float64(n))
}

// RecordScoringError counts an internal scoring fault.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordFeedbackApplied counts a feedback event applied to a profile.
func RecordFeedbackApplied(outcome string) {
	globalManager.feedbackApplied.WithLabelValues(outcome).Inc()
}

// RecordFeedbackRejected counts a feedback event rejected at the boundary.
func RecordFeedbackRejected() {
	globalManager.feedbackRejected.Inc()
}

// UpdateFeedbackQueueSize publishes the feedback queue backlog.
func UpdateFeedbackQueueSize(n int) {
	globalManager.feedbackQueue.Set(float64(n))
}

// RecordSchedulerTick counts a cadence tick that started a run.
func RecordSchedulerTick(cadence string) {
	globalManager.schedulerTicks.WithLabelValues(cadence).Inc()
}

// RecordSchedulerSkip counts a tick skipped due to an in-flight run.
func RecordSchedulerSkip(cadence string) {
	globalManager.schedulerSkips.WithLabelValues(cadence).Inc()
}

// RecordSchedulerRunDuration records a scheduled job's run time.
func RecordSchedulerRunDuration(cadence string, durationMs float64) {
	globalManager.schedulerRunTime.WithLabelValues(cadence).Observe(durationMs)
}

// RecordCollaboratorCall counts one collaborator call result
// (ok, error, timeout, degraded).
func RecordCollaboratorCall(collaborator, result string) {
	globalManager.collaboratorCalls.WithLabelValues(collaborator, result).Inc()
}

// RecordCollaboratorRetry counts one retry of a collaborator call.
func RecordCollaboratorRetry(collaborator string) {
	globalManager.collaboratorRetries.WithLabelValues(collaborator).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}
