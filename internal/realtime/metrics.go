package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Live WebSocket connections.",
	})

	eventsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_delivered_total",
			Help: "Events delivered to a live connection.",
		},
		[]string{"kind"},
	)

	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_dropped_total",
			Help: "Events addressed to a subject with no live connection.",
		},
		[]string{"kind"},
	)

	eventsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_failed_total",
			Help: "Event writes that failed and detached the connection.",
		},
		[]string{"kind"},
	)
)

// Init registers realtime metrics in the default registry.
func Init() {
	prometheus.MustRegister(connectionsLive, eventsDelivered, eventsDropped, eventsFailed)
}
