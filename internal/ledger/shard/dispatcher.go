package shard

import (
	"fmt"

	luxlog "github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/metrics"
	"github.com/toybank/ledger/internal/ledger/processor"
	"github.com/toybank/ledger/internal/ledger/store"
)

// Dispatcher accepts events one at a time through Dispatch, validates their
// shape, routes them to lanes by client, and aggregates fatal errors. It
// runs entirely on the submitting goroutine; only the lanes it owns run in
// their own goroutines.
type Dispatcher struct {
	lanes []*Lane
	fatal chan error
	group *errgroup.Group
	log   luxlog.Logger
}

// NewDispatcher builds n lanes, one Processor per store in stores (stores
// must have length n; callers choose whether that means n independent
// MemStore shards or the same shared Store handle n times), and starts
// each lane's Run loop in its own goroutine.
func NewDispatcher(stores []store.Store, rec *metrics.Recorder) *Dispatcher {
	n := len(stores)
	fatal := make(chan error, n)
	lanes := make([]*Lane, n)
	group := &errgroup.Group{}
	for i, s := range stores {
		lane := NewLane(i, processor.New(s), fatal, rec)
		lanes[i] = lane
		group.Go(func() error {
			lane.Run()
			return nil
		})
	}
	return &Dispatcher{
		lanes: lanes,
		fatal: fatal,
		group: group,
		log:   luxlog.Root().With("component", "dispatcher"),
	}
}

// Dispatch validates evt and routes it to the lane owning evt.Client. It
// returns a fatal *ledger.InputError immediately if evt is malformed, or
// the first fatal error observed from any lane via a non-blocking poll of
// the shared fatal channel before the send.
func (d *Dispatcher) Dispatch(evt ledger.Event) error {
	if (evt.Type == ledger.Deposit || evt.Type == ledger.Withdrawal) && !evt.HasAmount {
		return &ledger.InputError{Reason: fmt.Sprintf("%s event missing required amount (client=%d tx=%d)", evt.Type, evt.Client, evt.TxID)}
	}
	if err := d.pollFatal(); err != nil {
		return err
	}
	idx := Route(evt.Client, len(d.lanes))
	d.lanes[idx].Send(evt)
	return nil
}

// pollFatal non-blockingly checks the fatal-error channel.
func (d *Dispatcher) pollFatal() error {
	select {
	case err := <-d.fatal:
		return err
	default:
		return nil
	}
}

// Close closes every lane's queue, waits for all lanes to exit, then does
// one final non-blocking poll of the fatal channel, surfacing any error
// found. Input exhaustion drives this call.
func (d *Dispatcher) Close() error {
	for _, lane := range d.lanes {
		lane.Close()
	}
	// errgroup.Group.Wait never returns a non-nil error here: each lane's
	// goroutine always returns nil and reports failures on the fatal
	// channel instead. Wait is used purely to join.
	_ = d.group.Wait()
	if err := d.pollFatal(); err != nil {
		return err
	}
	return nil
}
