// Package metrics holds the Prometheus collectors of the grading service.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	reg *prometheus.Registry

	grades        *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	staleReverted prometheus.Counter
	duration      prometheus.Histogram
	chunks        prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		grades: f.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_grades_total",
			Help: "Grades written, by grader and source.",
		}, []string{"graded_by", "source"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_grading_fallbacks_total",
			Help: "AI grades produced by the heuristic fallback, by reason.",
		}, []string{"reason"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_grading_failures_total",
			Help: "Grading invocations that failed, by error kind.",
		}, []string{"kind"}),
		staleReverted: f.NewCounter(prometheus.CounterOpts{
			Name: "essay_stale_reverted_total",
			Help: "Essays moved from grading back to submitted by the sweeper.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "essay_grading_duration_seconds",
			Help:    "Wall time of AI grading invocations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 3, 9),
		}),
		chunks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "essay_grading_chunks",
			Help:    "Parts per AI grading invocation.",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 40},
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveAIGrade records one successful engine invocation.
func (m *Metrics) ObserveAIGrade(res grading.Result, took time.Duration) {
	if m == nil {
		return
	}
	m.grades.WithLabelValues(string(grading.GradedByAI), string(res.Source.Kind)).Inc()
	if res.Source.IsFallback() {
		m.fallbacks.WithLabelValues(fallbackReason(res.Source.Reason)).Inc()
	}
	m.duration.Observe(took.Seconds())
	m.chunks.Observe(float64(max(res.Grade.ChunksProcessed, 1)))
}

func (m *Metrics) ObserveManualGrade() {
	if m == nil {
		return
	}
	m.grades.WithLabelValues(string(grading.GradedByTeacher), "manual").Inc()
}

func (m *Metrics) GradingFailed(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) StaleReverted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.staleReverted.Add(float64(n))
}

// fallbackReason folds free-form reasons into a small label set.
func fallbackReason(reason string) string {
	switch {
	case reason == "external grader not configured":
		return "not_configured"
	case strings.Contains(reason, grading.ErrInvalidRubricResponse.Error()):
		return "invalid_response"
	case strings.Contains(reason, grading.ErrExternalService.Error()):
		return "external_error"
	default:
		return "other"
	}
}
