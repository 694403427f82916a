package ledger

import "fmt"

// Outcome classifies how an operation resolved.
type Outcome int

const (
	// Applied means the event mutated the ledger as specified.
	Applied Outcome = iota
	// Rejected means the event was well-formed but current state forbids
	// it (locked account, insufficient funds, wrong-client dispute, ...).
	Rejected
	// Ignored means the event is a no-op given prior state (duplicate
	// TxID, re-dispute of an already-disputed transaction).
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RejectedError reports a well-formed event that current state forbids.
// The stream continues: callers swallow this at the lane boundary.
type RejectedError struct{ Reason string }

func (e *RejectedError) Error() string { return "rejected: " + e.Reason }

// IgnoredError reports a no-op event. The stream continues.
type IgnoredError struct{ Reason string }

func (e *IgnoredError) Error() string { return "ignored: " + e.Reason }

// IOError wraps a storage or serialization failure. It is fatal: it
// escapes the lane on the shared fatal-error channel.
type IOError struct{ Err error }

func (e *IOError) Error() string { return fmt.Sprintf("io error: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// InputError reports a malformed event (missing required amount,
// unparseable record). Fatal at the Dispatcher.
type InputError struct{ Reason string }

func (e *InputError) Error() string { return "input error: " + e.Reason }

// Classify maps an error returned by the Processor to an Outcome. Any
// error that is neither Rejected nor Ignored is, by construction, fatal.
func Classify(err error) (Outcome, bool) {
	switch err.(type) {
	case *RejectedError:
		return Rejected, true
	case *IgnoredError:
		return Ignored, true
	default:
		return Applied, false
	}
}

// Rejectf builds a RejectedError with a formatted reason.
func Rejectf(format string, args ...any) *RejectedError {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// Ignoref builds an IgnoredError with a formatted reason.
func Ignoref(format string, args ...any) *IgnoredError {
	return &IgnoredError{Reason: fmt.Sprintf(format, args...)}
}
