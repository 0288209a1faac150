// Package metrics defines the Prometheus metrics exported by the broadcaster.
// It is the single source of truth for metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roomcast"

// ConnectionsActive tracks the number of live connections per room.
var ConnectionsActive = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_active",
		Help:      "Current number of live connections, by room.",
	},
	[]string{"room"},
)

// RoomsActive tracks the number of instantiated rooms.
var RoomsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Current number of active rooms.",
	},
)

// EventsBroadcastTotal counts events fanned out to room members.
// Labels:
//   - room: room name
//   - kind: "message", "join", "leave" or "system"
var EventsBroadcastTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_broadcast_total",
		Help:      "Total number of events broadcast to room members, by kind.",
	},
	[]string{"room", "kind"},
)

// MessagesRejectedTotal counts inbound messages rejected before broadcast.
// Labels:
//   - room: room name
//   - reason: "rate_limited", "suspicious", "empty" or "malformed"
var MessagesRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_rejected_total",
		Help:      "Total number of inbound messages rejected, by reason.",
	},
	[]string{"room", "reason"},
)

// DeliveryFailuresTotal counts per-recipient send failures during fan-out.
var DeliveryFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_failures_total",
		Help:      "Total number of failed deliveries to individual connections.",
	},
	[]string{"room"},
)
