package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for submissions.
const (
	OutcomeSaved  = "saved"
	OutcomeFailed = "failed"
)

// Collectors groups the quiz session metrics.
type Collectors struct {
	SessionsStarted prometheus.Counter
	ActiveSessions  prometheus.Gauge
	Submissions     *prometheus.CounterVec
	CatalogFailures prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collectors{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz_session",
			Name:      "attempts_started_total",
			Help:      "Quizzes chosen by users.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "quiz_session",
			Name:      "active_sessions",
			Help:      "Open quiz screens.",
		}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz_session",
			Name:      "submissions_total",
			Help:      "Result submissions by outcome.",
		}, []string{"outcome"}),
		CatalogFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz_session",
			Name:      "catalog_failures_total",
			Help:      "Catalog loads that fell back to an empty catalog.",
		}),
	}
}
