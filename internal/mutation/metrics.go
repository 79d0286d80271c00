package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts settled mutations. A nil *Metrics records nothing.
type Metrics struct {
	settled   *prometheus.CounterVec
	overlaps prometheus.Counter
	inflight prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		settled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "mutation",
			Name:      "settled_total",
			Help:      "Settled mutations by name and outcome",
		}, []string{"name", "outcome"}),
		overlaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "mutation",
			Name:      "overlapping_keys_total",
			Help:      "Keys still carrying other pending mutations when one settled",
		}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quill",
			Subsystem: "mutation",
			Name:      "inflight",
			Help:      "Mutations waiting for the server",
		}),
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.inflight.Inc()
	}
}

func (m *Metrics) settle(name string, outcome State, overlapping int) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.settled.WithLabelValues(name, outcome.String()).Inc()
	if overlapping > 0 {
		m.overlaps.Add(float64(overlapping))
	}
}

func (m *Metrics) rejected(name string) {
	if m != nil {
		m.settled.WithLabelValues(name, "rejected").Inc()
	}
}
