// Package csvio is the external boundary adapter: it decodes the
// record-framing input format into ledger.Event and encodes the final
// account snapshot. Neither the Transaction Processor nor the shard package
// import this package; it exists only so cmd/toybank has a runnable
// end-to-end path.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/toybank/ledger/internal/ledger"
)

// DecodeEvents reads `type,client,tx,amount` records from r. Leading and
// trailing whitespace on every field is trimmed, blank lines and lines
// beginning with '#' are skipped, and records may omit the amount column
// (dispute/resolve/chargeback commonly do).
func DecodeEvents(r io.Reader, yield func(ledger.Event) error) error {
	reader := csv.NewReader(newCommentFilter(r))
	reader.FieldsPerRecord = -1 // flexible arity
	reader.TrimLeadingSpace = true

	first := true
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv read: %w", err)
		}
		if first {
			first = false
			if looksLikeHeader(fields) {
				continue
			}
		}
		evt, err := parseEvent(fields)
		if err != nil {
			return err
		}
		if err := yield(evt); err != nil {
			return err
		}
	}
}

func looksLikeHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	if _, ok := ledger.ParseEventType(strings.TrimSpace(strings.ToLower(fields[0]))); ok {
		return false
	}
	// A record whose client column is numeric is data, even with an
	// unknown type, so parseEvent rejects it instead of it being skipped.
	if len(fields) > 1 {
		if _, err := strconv.ParseUint(trim(fields[1]), 10, 16); err == nil {
			return false
		}
	}
	return true
}

func parseEvent(fields []string) (ledger.Event, error) {
	if len(fields) < 3 {
		return ledger.Event{}, &ledger.InputError{Reason: fmt.Sprintf("record has too few fields: %v", fields)}
	}
	typ, ok := ledger.ParseEventType(trim(fields[0]))
	if !ok {
		return ledger.Event{}, &ledger.InputError{Reason: fmt.Sprintf("unknown event type %q", fields[0])}
	}
	client, err := parseClient(trim(fields[1]))
	if err != nil {
		return ledger.Event{}, err
	}
	txID, err := parseTxID(trim(fields[2]))
	if err != nil {
		return ledger.Event{}, err
	}
	evt := ledger.Event{Type: typ, Client: client, TxID: txID}
	if len(fields) >= 4 && trim(fields[3]) != "" {
		amount, err := decimal.NewFromString(trim(fields[3]))
		if err != nil {
			return ledger.Event{}, &ledger.InputError{Reason: fmt.Sprintf("malformed amount %q: %v", fields[3], err)}
		}
		evt.Amount = amount
		evt.HasAmount = true
	}
	return evt, nil
}

func parseClient(s string) (ledger.Client, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, &ledger.InputError{Reason: fmt.Sprintf("malformed client id %q: %v", s, err)}
	}
	return ledger.Client(v), nil
}

func parseTxID(s string) (ledger.TxID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, &ledger.InputError{Reason: fmt.Sprintf("malformed tx id %q: %v", s, err)}
	}
	return ledger.TxID(v), nil
}

func trim(s string) string { return strings.TrimSpace(s) }

// EncodeAccounts writes the `client,available,held,total,locked` snapshot,
// one record per client, for every (client, account) pair produced by
// iterate.
func EncodeAccounts(w io.Writer, iterate func(yield func(ledger.Client, ledger.Account) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	err := iterate(func(client ledger.Client, acc ledger.Account) error {
		record := []string{
			strconv.FormatUint(uint64(client), 10),
			acc.Available.String(),
			acc.Held.String(),
			acc.Total.String(),
			strconv.FormatBool(acc.Locked),
		}
		return cw.Write(record)
	})
	if err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// commentFilter strips lines beginning with '#' (after trimming leading
// whitespace) before handing the stream to encoding/csv, which has no
// native comment-line support.
type commentFilter struct {
	scanner *bufio.Scanner
	buf     []byte
}

func newCommentFilter(r io.Reader) io.Reader {
	return &commentFilter{scanner: bufio.NewScanner(r)}
}

func (f *commentFilter) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if !f.scanner.Scan() {
			if err := f.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		line := f.scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		f.buf = append([]byte(line), '\n')
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
