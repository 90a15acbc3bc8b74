package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem. A nil
// *Metrics is valid and records nothing, which keeps the Service usable
// in tests without a registry.
type Metrics struct {
	TriagesTotal         *prometheus.CounterVec
	TriageDuration       *prometheus.HistogramVec
	RuleHitsTotal        *prometheus.CounterVec
	Confidence           prometheus.Histogram
	ModelUnavailable     prometheus.Counter
	ExplanationFallbacks prometheus.Counter
	PersistFailures      prometheus.Counter
	NotifyFailures       prometheus.Counter
}

// NewMetrics registers and returns triage metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triageai_triages_total",
			Help: "Completed triage runs by decision path and risk level.",
		}, []string{"path", "risk_level"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triageai_triage_duration_seconds",
			Help:    "Duration of full triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~20s
		}, []string{"path"}),
		RuleHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triageai_rule_hits_total",
			Help: "Clinical rule engine hits by rule name.",
		}, []string{"rule"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triageai_model_confidence",
			Help:    "Classifier confidence of model-path decisions.",
			Buckets: prometheus.LinearBuckets(0.3, 0.05, 14), // 0.3 .. 0.95
		}),
		ModelUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageai_model_unavailable_total",
			Help: "Model-path requests rejected because the classifier is not loaded.",
		}),
		ExplanationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageai_explanation_fallbacks_total",
			Help: "Explanations served from the deterministic fallback template.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageai_persist_failures_total",
			Help: "Triage runs that failed at the persistence step.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageai_notify_failures_total",
			Help: "Failed high-risk triage notifications.",
		}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.RuleHitsTotal,
		m.Confidence,
		m.ModelUnavailable,
		m.ExplanationFallbacks,
		m.PersistFailures,
		m.NotifyFailures,
	)

	return m
}

func (m *Metrics) observeTriage(path, risk, ruleName string, confidence, duration float64) {
	if m == nil {
		return
	}
	m.TriagesTotal.WithLabelValues(path, risk).Inc()
	m.TriageDuration.WithLabelValues(path).Observe(duration)
	if ruleName != "" {
		m.RuleHitsTotal.WithLabelValues(ruleName).Inc()
	}
	if path == PathModel {
		m.Confidence.Observe(confidence)
	}
}

func (m *Metrics) incModelUnavailable() {
	if m != nil {
		m.ModelUnavailable.Inc()
	}
}

func (m *Metrics) incExplanationFallback() {
	if m != nil {
		m.ExplanationFallbacks.Inc()
	}
}

func (m *Metrics) incPersistFailure() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) incNotifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}
