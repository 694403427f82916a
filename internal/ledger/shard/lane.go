package shard

import (
	"fmt"
	"strconv"

	luxlog "github.com/luxfi/log"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/metrics"
	"github.com/toybank/ledger/internal/ledger/processor"
)

// laneQueueCapacity is the bounded per-lane queue depth: a slow lane
// applies backpressure to the Dispatcher once its queue fills.
const laneQueueCapacity = 8

// Lane is a single-threaded consumer that drains its own bounded queue and
// invokes the Processor against its shard of the ledger. It never writes or
// reads outside its shard except during iteration.
type Lane struct {
	id     int
	proc   *processor.Processor
	events chan ledger.Event
	fatal  chan<- error
	rec    *metrics.Recorder
	log    luxlog.Logger
}

// NewLane returns a Lane that will process events against proc once Run is
// called. fatal is the shared, many-producer-single-consumer error channel
// every lane in a Dispatcher's pool reports into.
func NewLane(id int, proc *processor.Processor, fatal chan<- error, rec *metrics.Recorder) *Lane {
	return &Lane{
		id:     id,
		proc:   proc,
		events: make(chan ledger.Event, laneQueueCapacity),
		fatal:  fatal,
		rec:    rec,
		log:    luxlog.Root().With("component", "lane", "lane", id),
	}
}

// Send enqueues evt, blocking if the lane's queue is full. This is the
// backpressure mechanism that keeps a slow lane from being overrun.
func (l *Lane) Send(evt ledger.Event) {
	l.events <- evt
	if l.rec != nil {
		l.rec.QueueSize.WithLabelValues(strconv.Itoa(l.id)).Set(float64(len(l.events)))
	}
}

// Close signals that no more events will be sent; Run returns once the
// queue drains.
func (l *Lane) Close() { close(l.events) }

// Run drains the lane's queue until it is closed or a fatal error occurs.
// Rejected and Ignored outcomes are expected by the domain and never
// terminate the lane; anything else is forwarded to the fatal channel
// (non-blocking, drop-if-full) and the lane exits.
func (l *Lane) Run() {
	for evt := range l.events {
		if l.rec != nil {
			l.rec.QueueSize.WithLabelValues(strconv.Itoa(l.id)).Set(float64(len(l.events)))
		}
		err := l.proc.Apply(evt)
		if err == nil {
			l.record("applied")
			continue
		}
		if outcome, expected := ledger.Classify(err); expected {
			l.record(outcome.String())
			l.log.Debug("swallowed expected outcome", "outcome", outcome, "client", evt.Client, "tx", evt.TxID, "reason", err)
			continue
		}
		l.record("fatal")
		if l.rec != nil {
			l.rec.Fatal.Inc()
		}
		l.log.Error("lane fatal error", "client", evt.Client, "tx", evt.TxID, "err", err)
		select {
		case l.fatal <- fmt.Errorf("lane %d: %w", l.id, err):
		default:
		}
		return
	}
}

func (l *Lane) record(outcome string) {
	if l.rec != nil {
		l.rec.Outcomes.WithLabelValues(strconv.Itoa(l.id), outcome).Inc()
	}
}
