// Package ledger holds the data model and error taxonomy shared by the
// store, processor and shard packages: the types every other package in
// this module imports.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Client is an opaque client identifier. The input format carries it as a
// 16-bit unsigned integer.
type Client uint16

// TxID is an opaque transaction identifier, intended to be globally unique
// across all event types but only required to be unique per shard (see
// shard.Route).
type TxID uint32

// Amount is a fixed-point decimal. Arithmetic is exact; float64 is never
// used for balances.
type Amount = decimal.Decimal

// TxState is the lifecycle stage of a Transaction record.
type TxState int

const (
	// Committed is the initial state of a deposit: dispute-eligible.
	Committed TxState = iota
	// Disputed means funds are currently held pending resolution.
	Disputed
	// Finalized means the transaction is no longer dispute-eligible.
	// Withdrawals start here directly; a resolve moves a dispute here.
	Finalized
	// Cancelled is the chargeback terminal state.
	Cancelled
)

func (s TxState) String() string {
	switch s {
	case Committed:
		return "committed"
	case Disputed:
		return "disputed"
	case Finalized:
		return "finalized"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("txstate(%d)", int(s))
	}
}

// Account is one client's balance state. Zero value is a fresh account
// (available = held = total = 0, unlocked) and is never itself persisted;
// accounts are created lazily on first successful deposit.
type Account struct {
	Available Amount
	Held      Amount
	Total     Amount
	Locked    bool
}

// Transaction is the durable record of a deposit or withdrawal. Dispute,
// resolve and chargeback events mutate an existing Transaction's State but
// never create one of their own.
type Transaction struct {
	Client Client
	Amount Amount
	State  TxState
}

// Policy carries behavioral toggles the Store hands to every Lane so
// workers inherit the same configuration regardless of which shard they
// own.
type Policy struct {
	// AllowNegativeBalanceForDispute, when true, skips the
	// insufficient-funds-for-dispute check and lets a dispute drive
	// Available negative.
	AllowNegativeBalanceForDispute bool
}

// EventType is the kind of operation an Event carries.
type EventType int

const (
	Deposit EventType = iota
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

func (t EventType) String() string {
	switch t {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return fmt.Sprintf("eventtype(%d)", int(t))
	}
}

// ParseEventType maps an input record's type column to an EventType.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "deposit":
		return Deposit, true
	case "withdrawal":
		return Withdrawal, true
	case "dispute":
		return Dispute, true
	case "resolve":
		return Resolve, true
	case "chargeback":
		return Chargeback, true
	default:
		return 0, false
	}
}

// Event is one already-typed record handed to the Dispatcher. HasAmount
// distinguishes "amount present and zero" from "amount column absent",
// since deposit/withdrawal require an amount and the other three event
// types ignore whatever is in that column.
type Event struct {
	Type      EventType
	Client    Client
	TxID      TxID
	Amount    Amount
	HasAmount bool
}
