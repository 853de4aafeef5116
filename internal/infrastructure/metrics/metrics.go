// Package metrics métricas Prometheus del asistente de alta y de las llamadas remotas.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/bankapi"
)

var (
	_ provisioning.MetricsRecorder = (*Metrics)(nil)
	_ bankapi.CallObserver         = (*Metrics)(nil)
)

// Metrics agrupa los colectores. Se registran en el Registerer recibido.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	Outcomes           *prometheus.CounterVec
	RemoteCalls        *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec
	SessionsActive     prometheus.Gauge
}

// New crea y registra los colectores. Con prometheus.DefaultRegisterer quedan en /metrics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provisioning_transitions_total",
				Help: "Total number of workflow state transitions",
			},
			[]string{"category", "from", "to"},
		),
		Outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provisioning_outcomes_total",
				Help: "Total number of finished workflow runs by outcome",
			},
			[]string{"category", "outcome", "error_kind"},
		),
		RemoteCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provisioning_remote_calls_total",
				Help: "Total number of remote create calls",
			},
			[]string{"op", "status"},
		),
		RemoteCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provisioning_remote_call_duration_seconds",
				Help:    "Duration of remote create calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "provisioning_sessions_active",
				Help: "Number of open provisioning sessions",
			},
		),
	}
}

// ObserveTransition implementa provisioning.MetricsRecorder.
func (m *Metrics) ObserveTransition(category, from, to string) {
	m.Transitions.WithLabelValues(category, from, to).Inc()
}

// ObserveOutcome implementa provisioning.MetricsRecorder.
func (m *Metrics) ObserveOutcome(category, outcome, errorKind string) {
	m.Outcomes.WithLabelValues(category, outcome, errorKind).Inc()
}

// ObserveRemoteCall implementa bankapi.CallObserver. status 0 = sin respuesta HTTP.
func (m *Metrics) ObserveRemoteCall(op string, statusCode int, elapsed time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.RemoteCalls.WithLabelValues(op, status).Inc()
	m.RemoteCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetSessionsActive actualiza el gauge de sesiones abiertas.
func (m *Metrics) SetSessionsActive(n int) {
	m.SessionsActive.Set(float64(n))
}
