// Package store implements the Ledger Store capability set: two keyed maps
// (Client → Account, TxID → Transaction), backed by either a plain
// in-memory map or an embedded Pebble instance.
package store

import (
	"github.com/toybank/ledger/internal/ledger"
)

// AccountIterator and TxIterator are finite, non-restartable-required
// sequences over one logical key space. Order is unspecified.
type AccountIterator interface {
	Next() bool
	Account() (ledger.Client, ledger.Account)
	Err() error
	Close() error
}

type TxIterator interface {
	Next() bool
	Tx() (ledger.TxID, ledger.Transaction)
	Err() error
	Close() error
}

// Store is the capability set the Processor consults and mutates, backed
// by either an in-memory or a persistent implementation. Dynamic dispatch
// at the store boundary is cheap since the hot path is a handful of calls
// per event.
type Store interface {
	GetAccount(client ledger.Client) (ledger.Account, bool, error)
	PutAccount(client ledger.Client, acc ledger.Account) error
	IterAccounts() (AccountIterator, error)

	GetTransaction(tx ledger.TxID) (ledger.Transaction, bool, error)
	PutTransaction(tx ledger.TxID, t ledger.Transaction) error
	IterTransactions() (TxIterator, error)

	// Policy returns the behavioral configuration every Lane sharing this
	// Store inherits.
	Policy() ledger.Policy

	Close() error
}
