// Package metrics exposes Prometheus instrumentation for the safety
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SafetyMetrics holds the pipeline's Prometheus collectors.
type SafetyMetrics struct {
	classifications   *prometheus.CounterVec
	analyzerFallbacks prometheus.Counter
	escalations       *prometheus.CounterVec
	publishRetries    *prometheus.CounterVec
	publishFailures   *prometheus.CounterVec
	reportAccess      *prometheus.CounterVec
	reportsPurged     prometheus.Counter
}

// NewSafetyMetrics creates and registers the collectors on reg.
func NewSafetyMetrics(reg prometheus.Registerer) *SafetyMetrics {
	m := &SafetyMetrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "classifications_total",
			Help:      "Messages classified, by category and severity.",
		}, []string{"category", "severity"}),
		analyzerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "analyzer_fallbacks_total",
			Help:      "Semantic analyzer calls that fell back to pattern results.",
		}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "escalations_published_total",
			Help:      "Escalation events published, by priority.",
		}, []string{"priority"}),
		publishRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "publish_retries_total",
			Help:      "Failed publish attempts that were retried, by topic.",
		}, []string{"topic"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "publish_failures_total",
			Help:      "Escalations that exhausted publish retries, by topic.",
		}, []string{"topic"}),
		reportAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "report_access_total",
			Help:      "Report read attempts, by outcome.",
		}, []string{"outcome"}),
		reportsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "reports_purged_total",
			Help:      "Reports deleted by retention purges.",
		}),
	}

	reg.MustRegister(
		m.classifications,
		m.analyzerFallbacks,
		m.escalations,
		m.publishRetries,
		m.publishFailures,
		m.reportAccess,
		m.reportsPurged,
	)
	return m
}

func (m *SafetyMetrics) ClassificationObserved(category, severity string) {
	m.classifications.WithLabelValues(category, severity).Inc()
}

func (m *SafetyMetrics) AnalyzerFallback() {
	m.analyzerFallbacks.Inc()
}

func (m *SafetyMetrics) EscalationPublished(priority string) {
	m.escalations.WithLabelValues(priority).Inc()
}

func (m *SafetyMetrics) PublishRetry(topic string) {
	m.publishRetries.WithLabelValues(topic).Inc()
}

func (m *SafetyMetrics) PublishFailure(topic string) {
	m.publishFailures.WithLabelValues(topic).Inc()
}

func (m *SafetyMetrics) ReportAccess(outcome string) {
	m.reportAccess.WithLabelValues(outcome).Inc()
}

func (m *SafetyMetrics) ReportsPurged(n int) {
	m.reportsPurged.Add(float64(n))
}
