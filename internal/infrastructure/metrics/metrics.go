package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roastparty",
		Name:      "rooms_created_total",
		Help:      "Rooms created since process start.",
	})

	RoomsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roastparty",
		Name:      "rooms_expired_total",
		Help:      "Rooms deactivated by the expiry sweep.",
	})

	ParticipantsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roastparty",
		Name:      "participants_reclaimed_total",
		Help:      "Participant rows deleted by the long-inactivity sweep.",
	})

	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "roastparty",
		Name:      "open_connections",
		Help:      "Live websocket connections.",
	})

	RoomSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roastparty",
		Name:      "room_subscribers",
		Help:      "Live subscribers per room channel.",
	}, []string{"room_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roastparty",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, path pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
