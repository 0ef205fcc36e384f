package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type eventMetrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
}

func newEventMetrics(promRegistry prometheus.Registerer) *eventMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &eventMetrics{
		eventsTotal: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_events_total",
			Help: "total events published by type",
		}, []string{"type"}),
		subscribers: promautoFactory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lostfound_event_subscribers",
			Help: "current subscribers by event type",
		}, []string{"type"}),
		deliveryErrors: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_event_delivery_errors_total",
			Help: "events that could not be delivered, by type and reason",
		}, []string{"type", "reason"}),
	}
}
