package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the enrollment workflow: latency of
// every external call plus counts of the outcomes that matter to operations.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ExternalCallDuration *prometheus.HistogramVec
	Submissions          *prometheus.CounterVec
	BiometricVerdicts    *prometheus.CounterVec
	Completions          prometheus.Counter
	Notifications        *prometheus.CounterVec
}

// New registers the enrollment metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExternalCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vinculacion_external_call_duration_seconds",
			Help:    "Latency of calls to the biometrics vendor, Oracle, LINIX and notification channels",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"action", "success"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vinculacion_submissions_total",
			Help: "Enrollment submissions by outcome",
		}, []string{"outcome"}),
		BiometricVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vinculacion_biometric_verdicts_total",
			Help: "Biometric verdicts applied to records, by source (poll or callback)",
		}, []string{"verdict", "source"}),
		Completions: f.NewCounter(prometheus.CounterOpts{
			Name: "vinculacion_completions_total",
			Help: "Enrollments confirmed as completed in core banking",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vinculacion_notifications_total",
			Help: "Completion notifications by channel and success",
		}, []string{"channel", "success"}),
	}
}

// ObserveExternalCall records one external call attempt.
func (m *Metrics) ObserveExternalCall(action string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExternalCallDuration.WithLabelValues(action, strconv.FormatBool(success)).Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementVerdict(verdict, source string) {
	if m == nil {
		return
	}
	m.BiometricVerdicts.WithLabelValues(verdict, source).Inc()
}

func (m *Metrics) IncrementCompletion() {
	if m == nil {
		return
	}
	m.Completions.Inc()
}

func (m *Metrics) IncrementNotification(channel string, success bool) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, strconv.FormatBool(success)).Inc()
}
