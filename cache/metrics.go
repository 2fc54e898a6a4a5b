package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by Metrics.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultNoCache = "no_cache"
	ResultError   = "error"
)

// Metrics counts cache requests by outcome and cleared keys.
// A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	cleared  prometheus.Counter
}

// NewMetrics creates the cache collectors and registers them on reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barrel",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cached calls by outcome.",
		}, []string{"result"}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barrel",
			Subsystem: "cache",
			Name:      "cleared_keys_total",
			Help:      "Keys deleted by cache clearers.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.cleared)
	}
	return m
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

func (m *Metrics) clearedKeys(n int) {
	if m == nil {
		return
	}
	m.cleared.Add(float64(n))
}
