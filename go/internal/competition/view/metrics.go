package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

// Metrics holds the collectors shared by every view in a process. A nil
// *Metrics records nothing.
type Metrics struct {
	eventsApplied   *prometheus.CounterVec
	eventsIgnored   *prometheus.CounterVec
	eventErrors     *prometheus.CounterVec
	subscriptions   prometheus.Gauge
	transportErrors prometheus.Counter
	publishes       prometheus.Counter
	activeViews     prometheus.Gauge
}

// NewMetrics registers the view collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "votearena_view_events_applied_total",
			Help: "real-time events that changed a read model",
		}, []string{"kind"}),
		eventsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "votearena_view_events_ignored_total",
			Help: "duplicate or unknown-contestant events that left the read model unchanged",
		}, []string{"kind"}),
		eventErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "votearena_view_event_errors_total",
			Help: "events whose payload could not be decoded",
		}, []string{"kind"}),
		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "votearena_view_subscriptions",
			Help: "open real-time subscriptions",
		}),
		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "votearena_view_transport_errors_total",
			Help: "failed subscribes and dropped feeds",
		}),
		publishes: factory.NewCounter(prometheus.CounterOpts{
			Name: "votearena_view_read_model_publishes_total",
			Help: "read model versions published",
		}),
		activeViews: factory.NewGauge(prometheus.GaugeOpts{
			Name: "votearena_view_active",
			Help: "views with a running event loop",
		}),
	}
}

func (m *Metrics) eventApplied(kind events.Kind, changed bool) {
	if m == nil {
		return
	}
	if changed {
		m.eventsApplied.WithLabelValues(string(kind)).Inc()
	} else {
		m.eventsIgnored.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) eventError(kind events.Kind) {
	if m == nil {
		return
	}
	m.eventErrors.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) subscriptionDelta(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Add(float64(n))
}

func (m *Metrics) transportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}

func (m *Metrics) published() {
	if m == nil {
		return
	}
	m.publishes.Inc()
}

func (m *Metrics) viewDelta(n int) {
	if m == nil {
		return
	}
	m.activeViews.Add(float64(n))
}
