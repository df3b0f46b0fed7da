// Package metrics exposes Prometheus collectors for the coordination
// core. Label cardinality is kept to the small fixed sets (end reason,
// event type) so dashboards stay cheap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OnlineUsers gauges currently connected sessions.
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairgo_online_users",
		Help: "Number of connected sessions.",
	})

	// ActiveRooms gauges rooms currently in the active state.
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairgo_active_rooms",
		Help: "Number of active chat rooms.",
	})

	// QueueDepth gauges the matching queue length.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairgo_queue_depth",
		Help: "Number of users waiting in the match queue.",
	})

	// MatchesTotal counts successful pairings.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairgo_matches_total",
		Help: "Total number of matches made.",
	})

	// MessagesTotal counts relayed chat messages.
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairgo_messages_total",
		Help: "Total number of chat messages relayed.",
	})

	// RoomsEndedTotal counts closed rooms by end reason.
	RoomsEndedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pairgo_rooms_ended_total",
		Help: "Total number of rooms ended, by reason.",
	}, []string{"reason"})

	// ViolationsTotal counts flags recorded against sessions.
	ViolationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pairgo_violations_total",
		Help: "Total number of violations flagged, by kind.",
	}, []string{"kind"})

	// EventsTotal counts inbound client events by type.
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pairgo_client_events_total",
		Help: "Total number of inbound client events, by type.",
	}, []string{"type"})
)

// Register installs all collectors on the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		OnlineUsers,
		ActiveRooms,
		QueueDepth,
		MatchesTotal,
		MessagesTotal,
		RoomsEndedTotal,
		ViolationsTotal,
		EventsTotal,
	)
}
