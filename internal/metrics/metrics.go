// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitgroup"

// Metrics groups the server's collectors.
type Metrics struct {
	// RPCRequests counts handled RPCs by procedure and Connect code ("ok" on success).
	RPCRequests *prometheus.CounterVec

	// RPCDuration observes handler latency by procedure.
	RPCDuration *prometheus.HistogramVec

	// ActiveWatchers is the number of open expense feed streams.
	ActiveWatchers prometheus.Gauge

	// SettlementTransfers observes how many transfers each settlement plan contains.
	SettlementTransfers prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Handled RPCs by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		ActiveWatchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expense_watchers",
			Help:      "Open expense feed streams.",
		}),
		SettlementTransfers: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Transfers per computed settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
	}
}
