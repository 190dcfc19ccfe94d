// Package prometheus exports workflow engine metrics: run and step
// durations, step outcome counters, retry counts, and active execution
// gauges, fed by a listener on the engine's event bus.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowkit"

var (
	// workflowDuration is a histogram of total workflow run duration.
	workflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Histogram of total workflow execution duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"workflow", "status"}, // status: success, error, cancelled
	)

	// workflowsTotal is a counter of finished workflow runs.
	workflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Total number of finished workflow executions",
		},
		[]string{"workflow", "status"},
	)

	// workflowsActive is a gauge of currently running executions.
	workflowsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflows_active",
			Help:      "Number of currently active workflow executions",
		},
	)

	// stepDuration is a histogram of step execution duration.
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Histogram of step execution duration in seconds",
			Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
		},
		[]string{"workflow", "step_type"},
	)

	// stepsTotal is a counter of step attempts by outcome.
	stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of executed steps",
		},
		[]string{"workflow", "step_type", "status"}, // status: success, error
	)

	// stepRetriesTotal is a counter of retry attempts beyond the first.
	stepRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Total number of step retry attempts beyond the first",
		},
		[]string{"workflow", "step_type"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		workflowDuration,
		workflowsTotal,
		workflowsActive,
		stepDuration,
		stepsTotal,
		stepRetriesTotal,
	}
)

// RecordWorkflowStart records an execution becoming active.
func RecordWorkflowStart() {
	workflowsActive.Inc()
}

// RecordWorkflowEnd records a finished execution.
func RecordWorkflowEnd(workflowID, status string, durationSeconds float64) {
	workflowsActive.Dec()
	workflowDuration.WithLabelValues(workflowID, status).Observe(durationSeconds)
	workflowsTotal.WithLabelValues(workflowID, status).Inc()
}

// RecordStep records one step's outcome and duration.
func RecordStep(workflowID, stepType, status string, durationSeconds float64, attempts int) {
	stepDuration.WithLabelValues(workflowID, stepType).Observe(durationSeconds)
	stepsTotal.WithLabelValues(workflowID, stepType, status).Inc()
	if attempts > 1 {
		stepRetriesTotal.WithLabelValues(workflowID, stepType).Add(float64(attempts - 1))
	}
}
