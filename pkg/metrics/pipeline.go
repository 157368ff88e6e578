package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records outcomes and per-stage timings of pipeline runs.
type PipelineMetrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	violations    prometheus.Counter
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "po_pipeline_runs_total",
		Help: "Pipeline runs by outcome (valid, invalid, error).",
	}, []string{"outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "po_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	violations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "po_pipeline_violations_total",
		Help: "Validation violations produced across all runs.",
	})
	reg.MustRegister(runs, stageDuration, violations)
	return &PipelineMetrics{
		runs:          runs,
		stageDuration: stageDuration,
		violations:    violations,
	}
}

// ObserveStage records the duration of the named stage.
func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}
	m.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncRun increments the run counter for the given outcome.
func (m *PipelineMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddViolations adds to the violation counter.
func (m *PipelineMetrics) AddViolations(n int) {
	if m == nil || m.violations == nil || n <= 0 {
		return
	}
	m.violations.Add(float64(n))
}

func normalizeLabel(value string) string {
	clean := strings.TrimSpace(strings.ToLower(value))
	if clean == "" {
		return "unknown"
	}
	return strings.ReplaceAll(clean, " ", "_")
}
