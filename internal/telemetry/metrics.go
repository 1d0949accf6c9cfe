package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Recorder backed by Prometheus collectors: a latency histogram
// and per-outcome exchange counters.
type Metrics struct {
	exchanges *prometheus.CounterVec
	rtt       prometheus.Histogram

	mu      sync.Mutex
	started map[string]time.Time
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetabling",
			Name:      "exchanges_total",
			Help:      "Completed negotiation exchanges by outcome.",
		}, []string{"outcome"}),
		rtt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timetabling",
			Name:      "exchange_rtt_seconds",
			Help:      "Round-trip time of negotiation exchanges.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		started: make(map[string]time.Time),
	}
	for _, collector := range []prometheus.Collector{m.exchanges, m.rtt} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Start(correlationID, _, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[correlationID] = time.Now()
}

func (m *Metrics) End(correlationID, outcome string, _ bool) {
	m.mu.Lock()
	startedAt, ok := m.started[correlationID]
	if ok {
		delete(m.started, correlationID)
	}
	m.mu.Unlock()

	m.exchanges.WithLabelValues(outcome).Inc()
	if ok {
		m.rtt.Observe(time.Since(startedAt).Seconds())
	}
}

func (m *Metrics) Close() error { return nil }
