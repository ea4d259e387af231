package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_changes_total",
			Help: "Change notifications dispatched, by table and operation",
		},
		[]string{"table", "operation"},
	)

	EmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_emissions_total",
			Help: "Events emitted, by addressing mode",
		},
		[]string{"mode"}, // broadcast|group
	)

	DispatchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_dispatch_errors_total",
			Help: "Changes that could not be fully dispatched, by reason",
		},
		[]string{"reason"}, // decode|panic|emit|unhandled
	)

	SinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_sink_errors_total",
			Help: "Failed publishes to an outbound transport",
		},
		[]string{"sink"}, // redis|nats|kafka
	)

	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_active_subscriptions",
			Help: "Change-feed subscriptions currently tracked",
		},
	)

	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_websocket_clients",
			Help: "Connected websocket clients",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ChangesTotal,
		EmissionsTotal,
		DispatchErrorsTotal,
		SinkErrorsTotal,
		ActiveSubscriptions,
		WebsocketClients,
	)
}
