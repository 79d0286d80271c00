package querycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache activity. A nil *Metrics records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	fetches       *prometheus.CounterVec
	evictions     prometheus.Counter
	invalidations prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "querycache",
			Name:      "hits_total",
			Help:      "Reads served from fresh cached data",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "querycache",
			Name:      "misses_total",
			Help:      "Reads that found no data or stale data",
		}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "querycache",
			Name:      "fetches_total",
			Help:      "Completed fetches by outcome",
		}, []string{"result"}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "querycache",
			Name:      "evictions_total",
			Help:      "Entries removed by the GC sweeper",
		}),
		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "querycache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale by invalidation",
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) fetched(result string) {
	if m != nil {
		m.fetches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) evicted(n int) {
	if m != nil && n > 0 {
		m.evictions.Add(float64(n))
	}
}

func (m *Metrics) invalidated(n int) {
	if m != nil && n > 0 {
		m.invalidations.Add(float64(n))
	}
}
