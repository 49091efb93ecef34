// internal/messaging/metrics.go

package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Total number of messages sent",
	})

	conversationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_conversations_dropped_total",
		Help: "Conversations dropped from list results due to resolution failures",
	})

	changeEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_change_events_total",
		Help: "Change events published, by type",
	}, []string{"type"})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_connections",
		Help: "Currently connected websocket clients",
	})
)
