// Package engine wires the Ledger Store, Transaction Processor and sharded
// execution pipeline together into the single object the CLI drives: open
// a store, build N lanes, dispatch events, dump the final snapshot.
package engine

import (
	"fmt"
	"runtime"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/metrics"
	"github.com/toybank/ledger/internal/ledger/shard"
	"github.com/toybank/ledger/internal/ledger/store"
)

// Config selects the storage backend and worker concurrency for an Engine.
type Config struct {
	// Concurrency is the requested lane count. 0 means "use available
	// hardware parallelism" (runtime.GOMAXPROCS(0)); values <= 0 passed in
	// are otherwise treated as 1 (single lane, single-threaded).
	Concurrency int
	Policy      ledger.Policy

	// LedgerName selects the backend: "" selects MemStore (one independent
	// shard per lane); "inmem" selects an ephemeral Pebble instance;
	// anything else opens an on-disk Pebble store at that path, shared by
	// every lane.
	LedgerName string
	Drop       bool
}

// lanesFor resolves Concurrency to an actual lane count.
func (c Config) lanesFor() int {
	switch {
	case c.Concurrency == 0:
		return max(1, runtime.GOMAXPROCS(0))
	case c.Concurrency < 0:
		return 1
	default:
		return c.Concurrency
	}
}

// Engine owns the opened store(s) and the Dispatcher built on top of them.
type Engine struct {
	dispatcher *shard.Dispatcher
	stores     []store.Store
}

// Open builds an Engine per cfg. The caller must call Close when done.
func Open(cfg Config, rec *metrics.Recorder) (*Engine, error) {
	n := cfg.lanesFor()
	stores := make([]store.Store, n)

	switch cfg.LedgerName {
	case "":
		for i := range stores {
			stores[i] = store.NewMemStore(cfg.Policy)
		}
	case "inmem":
		s, err := store.Open(store.Options{Ephemeral: true, Drop: cfg.Drop, Policy: cfg.Policy})
		if err != nil {
			return nil, fmt.Errorf("open ephemeral ledger: %w", err)
		}
		for i := range stores {
			stores[i] = s
		}
	default:
		s, err := store.Open(store.Options{Path: cfg.LedgerName, Drop: cfg.Drop, Policy: cfg.Policy})
		if err != nil {
			return nil, fmt.Errorf("open ledger %q: %w", cfg.LedgerName, err)
		}
		for i := range stores {
			stores[i] = s
		}
	}

	return &Engine{
		dispatcher: shard.NewDispatcher(stores, rec),
		stores:     stores,
	}, nil
}

// Dispatch routes evt to its owning lane. See shard.Dispatcher.Dispatch.
func (e *Engine) Dispatch(evt ledger.Event) error { return e.dispatcher.Dispatch(evt) }

// Finish closes all lane queues, joins the lanes, and surfaces the first
// fatal error observed, if any.
func (e *Engine) Finish() error { return e.dispatcher.Close() }

// Accounts iterates every account across every distinct underlying store
// (deduplicated, since a shared Pebble store appears once per lane in
// e.stores but must only be iterated once).
func (e *Engine) Accounts(yield func(ledger.Client, ledger.Account) error) error {
	seen := make(map[store.Store]bool, len(e.stores))
	for _, s := range e.stores {
		if seen[s] {
			continue
		}
		seen[s] = true
		it, err := s.IterAccounts()
		if err != nil {
			return fmt.Errorf("iterate accounts: %w", err)
		}
		for it.Next() {
			client, acc := it.Account()
			if err := yield(client, acc); err != nil {
				it.Close()
				return err
			}
		}
		err = it.Err()
		it.Close()
		if err != nil {
			return fmt.Errorf("iterate accounts: %w", err)
		}
	}
	return nil
}

// Close releases every distinct underlying store.
func (e *Engine) Close() error {
	seen := make(map[store.Store]bool, len(e.stores))
	var firstErr error
	for _, s := range e.stores {
		if seen[s] {
			continue
		}
		seen[s] = true
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
