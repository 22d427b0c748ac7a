// Package telemetry exposes Prometheus instrumentation for the tier store.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements tier.MetricsRecorder on top of a Prometheus registerer.
type Metrics struct {
	transfers         prometheus.Counter
	reloads           prometheus.Counter
	serializeDuration *prometheus.HistogramVec
}

// New registers the tier store collectors with reg and returns the recorder.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transfers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercore",
			Name:      "transfers_total",
			Help:      "Entities promoted from the static tier to the dynamic tier.",
		}),
		reloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercore",
			Name:      "dynamic_reloads_total",
			Help:      "Wholesale replacements of the dynamic tier from a snapshot.",
		}),
		serializeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tiercore",
			Name:      "serialize_duration_seconds",
			Help:      "Time spent rendering a tier snapshot.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),
	}
}

// ObserveTransfer counts one promotion.
func (m *Metrics) ObserveTransfer() { m.transfers.Inc() }

// ObserveReload counts one dynamic-tier reload.
func (m *Metrics) ObserveReload() { m.reloads.Inc() }

// ObserveSerialize records one serialization of the named tier.
func (m *Metrics) ObserveSerialize(tier string, seconds float64) {
	m.serializeDuration.WithLabelValues(tier).Observe(seconds)
}
