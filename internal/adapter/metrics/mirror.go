package metrics

import "github.com/prometheus/client_golang/prometheus"

// MirrorMetrics covers the best-effort secondary snapshot copy.
type MirrorMetrics struct {
	Writes       *prometheus.CounterVec
	BreakerState prometheus.Gauge
}

func NewMirrorMetrics(reg prometheus.Registerer) *MirrorMetrics {
	m := &MirrorMetrics{
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "mirror_writes_total",
			Help:      "Snapshot mirror writes, by result (ok, error, rejected).",
		}, []string{"result"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "mirror_breaker_state",
			Help:      "Mirror circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.Writes, m.BreakerState)
	return m
}
