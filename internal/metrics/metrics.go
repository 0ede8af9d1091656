// Package metrics exports scheduler activity as Prometheus metrics. It plugs
// into the scheduler through hooks and serves its own registry, so several
// schedulers in one process (or one test binary) never collide.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/pulsegraph/internal/scheduler"
)

const namespace = "pulsegraph"

// Metric names, exported under the pulsegraph namespace.
const (
	MetricTaskDuration = "task_duration_seconds"
	MetricTasks        = "tasks_total"
	MetricPassDuration = "pass_duration_seconds"
	MetricPasses       = "passes_total"
	MetricPassTasks    = "pass_tasks_total"
)

// Metrics holds the collectors for one scheduler.
type Metrics struct {
	reg *prometheus.Registry

	taskDuration *prometheus.HistogramVec
	tasks        *prometheus.CounterVec
	passDuration prometheus.Histogram
	passes       *prometheus.CounterVec
	passTasks    *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricTaskDuration,
				Help:      "Duration of node updates.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"thread"},
		),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricTasks,
				Help:      "Node updates by outcome.",
			},
			[]string{"outcome"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricPassDuration,
				Help:      "Duration of evaluation passes.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricPasses,
				Help:      "Evaluation passes by outcome.",
			},
			[]string{"outcome"},
		),
		passTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricPassTasks,
				Help:      "Tasks left unfinished at pass end, by reason.",
			},
			[]string{"reason"},
		),
	}
	m.reg.MustRegister(m.taskDuration, m.tasks, m.passDuration, m.passes, m.passTasks)
	return m
}

// Hooks returns the scheduler hooks feeding these metrics.
func (m *Metrics) Hooks() scheduler.Hooks {
	return scheduler.Hooks{
		OnTaskEnd: m.taskEnd,
		OnPassEnd: m.passEnd,
	}
}

func (m *Metrics) taskEnd(info scheduler.TaskInfo, err error) {
	thread := "worker"
	if info.MainThread {
		thread = "main"
	}
	m.taskDuration.WithLabelValues(thread).Observe(info.Duration.Seconds())

	var pe *scheduler.TaskPanicError
	switch {
	case errors.As(err, &pe):
		m.tasks.WithLabelValues("panic").Inc()
	case err != nil:
		m.tasks.WithLabelValues("error").Inc()
	default:
		m.tasks.WithLabelValues("ok").Inc()
	}
}

func (m *Metrics) passEnd(r scheduler.PassReport) {
	m.passDuration.Observe(r.Duration.Seconds())

	outcome := "ok"
	switch {
	case len(r.Starved) > 0:
		outcome = "starved"
	case len(r.Failed) > 0:
		outcome = "failed"
	}
	m.passes.WithLabelValues(outcome).Inc()

	m.passTasks.WithLabelValues("failed").Add(float64(len(r.Failed)))
	m.passTasks.WithLabelValues("skipped").Add(float64(len(r.Skipped)))
	m.passTasks.WithLabelValues("carried").Add(float64(len(r.Carried)))
	m.passTasks.WithLabelValues("starved").Add(float64(len(r.Starved)))
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
