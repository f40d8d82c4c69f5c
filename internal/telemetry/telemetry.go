package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry records pipeline metrics. A nil *Telemetry is a valid no-op
// receiver so callers can wire metrics conditionally.
type Telemetry struct {
	runs          *prometheus.CounterVec
	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewTelemetry creates the metric set and registers it with reg.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roteiro_pipeline_runs_total",
			Help: "Pipeline runs by terminal status.",
		}, []string{"status"}),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roteiro_stage_runs_total",
			Help: "Stage executions by stage name and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roteiro_stage_duration_seconds",
			Help:    "Wall-clock duration of a single stage execution.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"stage"}),
	}
	reg.MustRegister(t.runs, t.stageRuns, t.stageDuration)
	return t
}

// RecordRun counts a completed or failed pipeline run.
func (t *Telemetry) RecordRun(success bool) {
	if t == nil {
		return
	}
	t.runs.WithLabelValues(statusLabel(success)).Inc()
}

// RecordStage counts one stage execution and observes its duration.
func (t *Telemetry) RecordStage(stage string, d time.Duration, success bool) {
	if t == nil {
		return
	}
	t.stageRuns.WithLabelValues(stage, statusLabel(success)).Inc()
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
