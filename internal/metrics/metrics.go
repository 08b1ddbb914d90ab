// Package metrics provides Prometheus metrics for peer discovery, failover
// and node requests.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every metric name.
const Namespace = "arkcli"

// Probe outcomes.
const (
	ProbeOK          = "ok"
	ProbeUnreachable = "unreachable"
	ProbeAPIDisabled = "api_disabled"
	ProbeError       = "error"
)

// Metrics holds the client's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Discovery
	DiscoveryPasses    *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec
	ResponsivePeers    prometheus.Gauge
	ProbesTotal        *prometheus.CounterVec
	ProbeDuration      prometheus.Histogram

	// Failover
	FailoversTotal   prometheus.Counter
	QuarantinedTotal prometheus.Counter

	// Requests
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Broadcast
	BroadcastAccepted prometheus.Counter
	BroadcastFailed   prometheus.Counter
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DiscoveryPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discovery_passes_total",
			Help:      "Discovery passes by result",
		}, []string{"result"}),
		CandidatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discovery_candidates_rejected_total",
			Help:      "Peer candidates rejected before probing, by reason",
		}, []string{"reason"}),
		ResponsivePeers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "responsive_peers",
			Help:      "Peers installed by the last successful discovery pass",
		}),
		ProbesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "probes_total",
			Help:      "Peer probes by outcome",
		}, []string{"outcome"}),
		ProbeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "probe_duration_seconds",
			Help:      "Peer probe latency in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
		}),

		FailoversTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "failovers_total",
			Help:      "Times an unresponsive server was replaced",
		}),
		QuarantinedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "peers_quarantined_total",
			Help:      "Peers placed in quarantine after a failure",
		}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_requests_total",
			Help:      "Node API requests by method and outcome",
		}, []string{"method", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "node_request_duration_seconds",
			Help:      "Node API request latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),

		BroadcastAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "broadcast_accepted_total",
			Help:      "Peers that accepted a broadcast transaction",
		}),
		BroadcastFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "broadcast_failed_total",
			Help:      "Peers that rejected or failed a broadcast transaction",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordDiscovery counts a discovery pass and, on success, the peer count.
func (m *Metrics) RecordDiscovery(responsive int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DiscoveryPasses.WithLabelValues("failed").Inc()
		return
	}
	m.DiscoveryPasses.WithLabelValues("ok").Inc()
	m.ResponsivePeers.Set(float64(responsive))
}

// RecordRejected counts candidates dropped for reason.
func (m *Metrics) RecordRejected(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CandidatesRejected.WithLabelValues(reason).Add(float64(n))
}

// RecordProbe counts a probe outcome and its latency.
func (m *Metrics) RecordProbe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(outcome).Inc()
	m.ProbeDuration.Observe(d.Seconds())
}

// RecordFailover counts a server replacement.
func (m *Metrics) RecordFailover() {
	if m == nil {
		return
	}
	m.FailoversTotal.Inc()
}

// RecordQuarantine counts a peer placed in quarantine.
func (m *Metrics) RecordQuarantine() {
	if m == nil {
		return
	}
	m.QuarantinedTotal.Inc()
}

// RecordRequest counts a node request and its latency.
func (m *Metrics) RecordRequest(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordBroadcast counts the per-peer outcomes of one broadcast.
func (m *Metrics) RecordBroadcast(accepted, failed int) {
	if m == nil {
		return
	}
	m.BroadcastAccepted.Add(float64(accepted))
	m.BroadcastFailed.Add(float64(failed))
}

// WriteText writes every collected metric to w in the Prometheus text
// exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
