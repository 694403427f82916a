// Package processor implements the Transaction Processor: a pure function
// of (ledger, event) -> outcome.
package processor

import (
	"fmt"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/store"
)

// Processor applies one event at a time against a Store. It holds no state
// of its own beyond the Store handle; all mutable state lives in the
// Store, so a Processor is safe to share across goroutines as long as
// nothing else concurrently mutates the same Store.
type Processor struct {
	store store.Store
}

// New returns a Processor bound to s.
func New(s store.Store) *Processor {
	return &Processor{store: s}
}

// Apply dispatches evt to the matching operation and returns its error: nil
// when the event was applied. Rejected and Ignored are reported as typed
// errors so callers can classify them into an Outcome with ledger.Classify;
// any other non-nil error is fatal.
func (p *Processor) Apply(evt ledger.Event) error {
	switch evt.Type {
	case ledger.Deposit:
		return p.Deposit(evt.Client, evt.TxID, evt.Amount)
	case ledger.Withdrawal:
		return p.Withdrawal(evt.Client, evt.TxID, evt.Amount)
	case ledger.Dispute:
		return p.Dispute(evt.Client, evt.TxID)
	case ledger.Resolve:
		return p.Resolve(evt.Client, evt.TxID)
	case ledger.Chargeback:
		return p.Chargeback(evt.Client, evt.TxID)
	default:
		return &ledger.InputError{Reason: fmt.Sprintf("unknown event type %v", evt.Type)}
	}
}

// Deposit applies a deposit event.
func (p *Processor) Deposit(client ledger.Client, txID ledger.TxID, amount ledger.Amount) error {
	acc, hasAcc, err := p.store.GetAccount(client)
	if err != nil {
		return &ledger.IOError{Err: err}
	}
	if _, exists, err := p.store.GetTransaction(txID); err != nil {
		return &ledger.IOError{Err: err}
	} else if exists {
		return ledger.Ignoref("duplicated transaction")
	}
	if hasAcc && acc.Locked {
		return ledger.Rejectf("account is locked")
	}

	next := acc
	if hasAcc {
		next.Available = next.Available.Add(amount)
		next.Total = next.Total.Add(amount)
	} else {
		next = ledger.Account{Available: amount, Total: amount}
	}
	if err := p.store.PutAccount(client, next); err != nil {
		return &ledger.IOError{Err: err}
	}
	tx := ledger.Transaction{Client: client, Amount: amount, State: ledger.Committed}
	if err := p.store.PutTransaction(txID, tx); err != nil {
		return &ledger.IOError{Err: err}
	}
	return nil
}

// Withdrawal applies a withdrawal event.
func (p *Processor) Withdrawal(client ledger.Client, txID ledger.TxID, amount ledger.Amount) error {
	acc, hasAcc, err := p.store.GetAccount(client)
	if err != nil {
		return &ledger.IOError{Err: err}
	}
	if !hasAcc {
		return ledger.Rejectf("account does not exist")
	}
	if acc.Locked {
		return ledger.Rejectf("account is locked")
	}
	if _, exists, err := p.store.GetTransaction(txID); err != nil {
		return &ledger.IOError{Err: err}
	} else if exists {
		return ledger.Ignoref("duplicated transaction")
	}
	if acc.Available.LessThan(amount) {
		return ledger.Rejectf("insufficient funds")
	}

	next := acc
	next.Available = next.Available.Sub(amount)
	next.Total = next.Total.Sub(amount)
	if err := p.store.PutAccount(client, next); err != nil {
		return &ledger.IOError{Err: err}
	}
	// Withdrawals are not dispute-eligible; the record exists solely to
	// prevent TxID reuse.
	tx := ledger.Transaction{Client: client, Amount: amount, State: ledger.Finalized}
	if err := p.store.PutTransaction(txID, tx); err != nil {
		return &ledger.IOError{Err: err}
	}
	return nil
}

// Dispute applies a dispute event.
func (p *Processor) Dispute(client ledger.Client, txID ledger.TxID) error {
	tx, acc, err := p.checkPrecondition(client, txID, ledger.Committed)
	if err != nil {
		return err
	}
	acc.Available = acc.Available.Sub(tx.Amount)
	acc.Held = acc.Held.Add(tx.Amount)
	if err := p.store.PutAccount(client, acc); err != nil {
		return &ledger.IOError{Err: err}
	}
	tx.State = ledger.Disputed
	if err := p.store.PutTransaction(txID, tx); err != nil {
		return &ledger.IOError{Err: err}
	}
	return nil
}

// Resolve applies a resolve event. A resolved transaction moves to
// Finalized and is not re-disputable.
func (p *Processor) Resolve(client ledger.Client, txID ledger.TxID) error {
	tx, acc, err := p.checkPrecondition(client, txID, ledger.Disputed)
	if err != nil {
		return err
	}
	acc.Available = acc.Available.Add(tx.Amount)
	acc.Held = acc.Held.Sub(tx.Amount)
	if err := p.store.PutAccount(client, acc); err != nil {
		return &ledger.IOError{Err: err}
	}
	tx.State = ledger.Finalized
	if err := p.store.PutTransaction(txID, tx); err != nil {
		return &ledger.IOError{Err: err}
	}
	return nil
}

// Chargeback applies a chargeback event.
func (p *Processor) Chargeback(client ledger.Client, txID ledger.TxID) error {
	tx, acc, err := p.checkPrecondition(client, txID, ledger.Disputed)
	if err != nil {
		return err
	}
	acc.Held = acc.Held.Sub(tx.Amount)
	acc.Total = acc.Total.Sub(tx.Amount)
	acc.Locked = true
	if err := p.store.PutAccount(client, acc); err != nil {
		return &ledger.IOError{Err: err}
	}
	tx.State = ledger.Cancelled
	if err := p.store.PutTransaction(txID, tx); err != nil {
		return &ledger.IOError{Err: err}
	}
	return nil
}

// checkPrecondition implements the shared precondition check for
// dispute/resolve/chargeback.
func (p *Processor) checkPrecondition(client ledger.Client, txID ledger.TxID, expected ledger.TxState) (ledger.Transaction, ledger.Account, error) {
	tx, hasTx, err := p.store.GetTransaction(txID)
	if err != nil {
		return ledger.Transaction{}, ledger.Account{}, &ledger.IOError{Err: err}
	}
	acc, hasAcc, err := p.store.GetAccount(client)
	if err != nil {
		return ledger.Transaction{}, ledger.Account{}, &ledger.IOError{Err: err}
	}

	if !hasTx {
		return tx, acc, ledger.Rejectf("deposit transaction does not exist")
	}
	if !hasAcc {
		return tx, acc, ledger.Rejectf("disputed account does not exist")
	}
	if tx.Client != client {
		return tx, acc, ledger.Rejectf("wrong client")
	}
	if tx.State != expected {
		switch {
		case expected == ledger.Committed && tx.State == ledger.Disputed:
			return tx, acc, ledger.Ignoref("already disputed")
		case expected == ledger.Disputed:
			return tx, acc, ledger.Rejectf("transaction is not disputed")
		default:
			return tx, acc, ledger.Rejectf("can not be disputed")
		}
	}
	if acc.Locked {
		return tx, acc, ledger.Rejectf("account is locked")
	}
	policy := p.store.Policy()
	if !policy.AllowNegativeBalanceForDispute && expected == ledger.Committed && tx.Amount.GreaterThan(acc.Available) {
		return tx, acc, ledger.Rejectf("insufficient funds for dispute")
	}
	return tx, acc, nil
}
