package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.IncrementSubmission("created")
	m.IncrementSubmission("created")
	m.IncrementVerdict("APROBADO", "callback")
	m.IncrementCompletion()
	m.IncrementNotification("n8n", false)
	m.ObserveExternalCall("CONSULTA_BIOMETRIA", true, 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BiometricVerdicts.WithLabelValues("APROBADO", "callback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("n8n", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ExternalCallDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementSubmission("created")
		m.IncrementCompletion()
		m.ObserveExternalCall("x", true, time.Second)
	})
}
