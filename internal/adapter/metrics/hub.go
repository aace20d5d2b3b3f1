package metrics

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons for HubMetrics.ClientsDropped.
const (
	DropReasonClosed = "closed"
	DropReasonSlow   = "slow"
	DropReasonError  = "error"
)

// HubMetrics covers the broadcast hub: connections, fan-out, and state mutations.
type HubMetrics struct {
	ConnectedClients  prometheus.Gauge
	MessagesBroadcast *prometheus.CounterVec
	ClientsDropped    *prometheus.CounterVec
	Mutations         *prometheus.CounterVec
	SnapshotSave      prometheus.Histogram
}

func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "connected_clients",
			Help:      "Number of live connections registered with the hub.",
		}),
		MessagesBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_broadcast_total",
			Help:      "Total number of fan-out messages, by message type.",
		}, []string{"type"}),
		ClientsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "clients_dropped_total",
			Help:      "Connections removed because a push failed, by reason.",
		}, []string{"reason"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "mutations_total",
			Help:      "Document mutations, by kind and result.",
		}, []string{"kind", "result"}),
		SnapshotSave: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "save_duration_seconds",
			Help:      "Time spent persisting a snapshot before broadcast.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	reg.MustRegister(m.ConnectedClients, m.MessagesBroadcast, m.ClientsDropped, m.Mutations, m.SnapshotSave)
	return m
}
