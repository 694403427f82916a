// Package metrics wires the dispatcher and lanes into Prometheus, the
// teacher's own metrics stack (luxfi-evm/metrics/prometheus.Gatherer sits
// in front of the same client_golang types).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder is the set of counters/gauges the shard package updates. It is
// safe for concurrent use by multiple lanes.
type Recorder struct {
	Outcomes  *prometheus.CounterVec
	QueueSize *prometheus.GaugeVec
	Fatal     prometheus.Counter
}

// NewRecorder registers a fresh Recorder against reg. reg may be nil, in
// which case a private registry is created so callers who don't care about
// exposing metrics don't need to wire one up.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toybank",
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Events processed per lane, partitioned by outcome.",
		}, []string{"lane", "outcome"}),
		QueueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "toybank",
			Subsystem: "ledger",
			Name:      "lane_queue_depth",
			Help:      "Current number of events buffered in a lane's queue.",
		}, []string{"lane"}),
		Fatal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toybank",
			Subsystem: "ledger",
			Name:      "fatal_errors_total",
			Help:      "Fatal errors reported by any lane.",
		}),
	}
	reg.MustRegister(r.Outcomes, r.QueueSize, r.Fatal)
	return r
}
