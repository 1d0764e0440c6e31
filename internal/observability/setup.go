package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

const namespace = "tarabot"

// Metrics holds the moderation collectors. A nil *Metrics records nothing.
type Metrics struct {
	violationsTotal           *prometheus.CounterVec
	notificationsTotal        *prometheus.CounterVec
	messageProcessingDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "violations_total",
				Help:      "Violations recorded, by escalation tier",
			},
			[]string{"tier"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification attempts, by recipient kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		messageProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "message_processing_duration_seconds",
				Help:      "Time spent processing group messages",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.violationsTotal, m.notificationsTotal, m.messageProcessingDuration)
	}
	return m
}

// RecordViolation counts a violation under its tier; counts above 3 share tier "3".
func (m *Metrics) RecordViolation(count int) {
	if m == nil {
		return
	}
	tier := min(count, 3)
	m.violationsTotal.WithLabelValues(strconv.Itoa(tier)).Inc()
}

func (m *Metrics) RecordNotification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// StartMessageProcessing returns a function that records the elapsed time under status.
func (m *Metrics) StartMessageProcessing() func(status string) {
	if m == nil {
		return func(string) {}
	}
	timer := prometheus.NewTimer(nil)
	return func(status string) {
		m.messageProcessingDuration.WithLabelValues(status).Observe(timer.ObserveDuration().Seconds())
	}
}

// InitTracing installs an SDK tracer provider as the global one and returns it for shutdown.
func InitTracing() *trace.TracerProvider {
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp
}
