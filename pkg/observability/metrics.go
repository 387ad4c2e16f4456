package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/checklist/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one skill instance.
// Each instance owns its registry so several skills can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	started      *prometheus.CounterVec
	rejected     prometheus.Counter
	prompts      *prometheus.CounterVec
	resolved     *prometheus.CounterVec
	finished     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	active       prometheus.Gauge
	decodeErrors *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_started_total",
			Help: "Checklists accepted by the skill.",
		}, []string{"site_id"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checklist_rejected_total",
			Help: "Start requests ignored because a checklist was already running.",
		}),
		prompts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_prompts_total",
			Help: "Item prompts spoken, split by first attempt and repeats.",
		}, []string{"repeat"}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_items_resolved_total",
			Help: "Items answered, by intent role.",
		}, []string{"role"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_finished_total",
			Help: "Finished reports published, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checklist_duration_seconds",
			Help:    "Time from start to finished report.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "checklist_active",
			Help: "1 while a checklist is running.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checklist_decode_errors_total",
			Help: "Inbound messages dropped because they could not be decoded.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.started, m.rejected, m.prompts, m.resolved,
		m.finished, m.duration, m.active, m.decodeErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDecodeError counts an inbound message that was dropped.
func (m *Metrics) ObserveDecodeError(kind domain.DecodeKind) {
	m.decodeErrors.WithLabelValues(string(kind)).Inc()
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(_ context.Context, e *domain.ChecklistEvent) {
			m.started.WithLabelValues(e.SiteID).Inc()
			m.active.Set(1)
		},
		OnReject: func(context.Context, *domain.ChecklistEvent) {
			m.rejected.Inc()
		},
		OnPrompt: func(_ context.Context, e *domain.PromptEvent) {
			m.prompts.WithLabelValues(strconv.FormatBool(e.Attempt > 1)).Inc()
		},
		OnResolve: func(_ context.Context, e *domain.ItemEvent) {
			m.resolved.WithLabelValues(string(e.Role)).Inc()
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			status := string(e.Report.Status)
			m.finished.WithLabelValues(status).Inc()
			m.duration.WithLabelValues(status).Observe(e.Duration.Seconds())
			m.active.Set(0)
		},
	}
}
