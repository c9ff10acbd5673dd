// Package metrics provides internal Prometheus metrics collection for the
// job manager, workflow engine and LM call path. Internal only — not meant
// to be imported outside this module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds every metric this module emits.
type Collector struct {
	jobsTotal        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	workflowStepsTotal *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	llmRequestsTotal *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
	reloadsTotal     *prometheus.CounterVec
}

// NewCollector builds and registers every metric under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		jobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_total", Help: "Total number of submitted jobs by terminal status.",
		}, []string{"status"}),

		jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds", Help: "Job wall time from PENDING to a terminal state.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"workflow_id", "status"}),

		workflowStepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "workflow_steps_total", Help: "Total number of executed workflow steps.",
		}, []string{"workflow_id", "agent_id", "status"}),

		stepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "workflow_step_duration_seconds", Help: "Duration of a single agent step.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"workflow_id", "agent_id"}),

		llmRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total", Help: "Total number of model-factory chat calls.",
		}, []string{"provider", "model", "status"}),

		llmDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "llm_request_duration_seconds", Help: "Chat call latency.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),

		reloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "config_reloads_total", Help: "Total hot-reload events by registry and outcome.",
		}, []string{"registry", "outcome"}),
	}
	logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

func (c *Collector) RecordJob(workflowID, status string, duration time.Duration) {
	c.jobsTotal.WithLabelValues(status).Inc()
	c.jobDuration.WithLabelValues(workflowID, status).Observe(duration.Seconds())
}

func (c *Collector) RecordWorkflowStep(workflowID, agentID, status string, duration time.Duration) {
	c.workflowStepsTotal.WithLabelValues(workflowID, agentID, status).Inc()
	c.stepDuration.WithLabelValues(workflowID, agentID).Observe(duration.Seconds())
}

func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

func (c *Collector) RecordReload(registry, outcome string) {
	c.reloadsTotal.WithLabelValues(registry, outcome).Inc()
}
