package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crpstore/internal/crp/models"
)

// Metrics holds the credential service collectors.
type Metrics struct {
	Enrolments         *prometheus.CounterVec
	Authentications    *prometheus.CounterVec
	ChallengesEnrolled prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Enrolments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crp_enrolments_total",
			Help: "Enrol calls, labeled by outcome",
		}, []string{"outcome"}),
		Authentications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crp_authentications_total",
			Help: "Authenticate calls, labeled by outcome",
		}, []string{"outcome"}),
		ChallengesEnrolled: factory.NewCounter(prometheus.CounterOpts{
			Name: "crp_challenges_enrolled_total",
			Help: "Challenge-response pairs stored by successful enrolments",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crp_operation_duration_seconds",
			Help:    "Latency of credential operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveEnrol records one Enrol call.
func (m *Metrics) ObserveEnrol(outcome models.Outcome, challenges int, elapsed time.Duration) {
	m.Enrolments.WithLabelValues(string(outcome)).Inc()
	if outcome == models.OutcomeSuccess {
		m.ChallengesEnrolled.Add(float64(challenges))
	}
	m.OperationDuration.WithLabelValues("enrol").Observe(elapsed.Seconds())
}

// ObserveAuthenticate records one Authenticate call.
func (m *Metrics) ObserveAuthenticate(outcome models.Outcome, elapsed time.Duration) {
	m.Authentications.WithLabelValues(string(outcome)).Inc()
	m.OperationDuration.WithLabelValues("authenticate").Observe(elapsed.Seconds())
}
