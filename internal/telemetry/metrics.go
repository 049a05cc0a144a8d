package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы запуска runtime.
const (
	OutcomeReady             = "ready"
	OutcomeConfigError       = "config_error"
	OutcomeAcquisitionFailed = "acquisition_failed"
	OutcomeDeploymentFailed  = "deployment_failed"
	OutcomeUnexpected        = "unexpected"
)

var (
	startupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kovert",
		Name:      "startups_total",
		Help:      "Total runtime startups by outcome.",
	}, []string{"outcome"})

	startupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kovert",
		Name:      "startup_duration_seconds",
		Help:      "Time from StartRuntime until the unit reported ready.",
		Buckets:   prometheus.DefBuckets,
	})

	deploymentsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kovert",
		Name:      "deployments_active",
		Help:      "Units currently deployed on runtimes of this process.",
	})

	clusterHeartbeats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kovert",
		Subsystem: "cluster",
		Name:      "heartbeats_total",
		Help:      "Cluster member heartbeats by result.",
	}, []string{"result"})
)

// RecordStartup фиксирует исход одного запуска.
// Длительность учитывается только для успешных запусков.
func RecordStartup(outcome string, duration time.Duration) {
	startupsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeReady {
		startupDuration.Observe(duration.Seconds())
	}
}

// DeploymentAdded увеличивает счётчик активных деплоев.
func DeploymentAdded() {
	deploymentsActive.Inc()
}

// DeploymentRemoved уменьшает счётчик активных деплоев.
func DeploymentRemoved() {
	deploymentsActive.Dec()
}

// RecordHeartbeat фиксирует результат heartbeat участника кластера.
func RecordHeartbeat(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	clusterHeartbeats.WithLabelValues(result).Inc()
}
