package emitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for a Bus.
type Metrics struct {
	// EventsEmittedTotal is the total number of emits per event.
	EventsEmittedTotal *prometheus.CounterVec

	// SubscriberFailuresTotal is the total number of handler errors and
	// panics per event.
	SubscriberFailuresTotal *prometheus.CounterVec

	// ActiveSubscriptions is the current number of registrations.
	ActiveSubscriptions prometheus.Gauge

	// DispatchDuration is the time spent invoking all subscribers of
	// one emit.
	DispatchDuration prometheus.Histogram
}

// NewMetrics creates and registers Prometheus metrics for a bus.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		EventsEmittedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_emitted_total",
				Help:      "Total number of emits",
			},
			[]string{"event"},
		),

		SubscriberFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriber_failures_total",
				Help:      "Total number of handler errors and panics",
			},
			[]string{"event"},
		),

		ActiveSubscriptions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_subscriptions",
				Help:      "Current number of registrations",
			},
		),

		DispatchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent invoking all subscribers of one emit",
				Buckets:   []float64{.0001, .001, .01, .05, .1, .5, 1},
			},
		),
	}
}

// IncEmitted increments the emit counter for an event.
func (m *Metrics) IncEmitted(event string) {
	m.EventsEmittedTotal.WithLabelValues(event).Inc()
}

// IncSubscriberFailures increments the failure counter for an event.
func (m *Metrics) IncSubscriberFailures(event string) {
	m.SubscriberFailuresTotal.WithLabelValues(event).Inc()
}

// AddActiveSubscriptions adjusts the active subscription gauge.
func (m *Metrics) AddActiveSubscriptions(delta int) {
	m.ActiveSubscriptions.Add(float64(delta))
}

// ObserveDispatchDuration records the time taken by one emit.
func (m *Metrics) ObserveDispatchDuration(seconds float64) {
	m.DispatchDuration.Observe(seconds)
}
