package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/toybank/ledger/internal/ledger"
)

const (
	accountPrefix     byte = 'A'
	transactionPrefix byte = 'T'
)

// accountKey and txKey encode the logical key space prefix plus a
// big-endian numeric suffix, so a Pebble range scan bounded by prefix
// iterates in ascending client/tx order.
func accountKey(c ledger.Client) []byte {
	buf := make([]byte, 3)
	buf[0] = accountPrefix
	binary.BigEndian.PutUint16(buf[1:], uint16(c))
	return buf
}

func txKey(id ledger.TxID) []byte {
	buf := make([]byte, 5)
	buf[0] = transactionPrefix
	binary.BigEndian.PutUint32(buf[1:], uint32(id))
	return buf
}

func decodeAccountKey(k []byte) (ledger.Client, error) {
	if len(k) != 3 || k[0] != accountPrefix {
		return 0, fmt.Errorf("malformed account key %q", k)
	}
	return ledger.Client(binary.BigEndian.Uint16(k[1:])), nil
}

func decodeTxKey(k []byte) (ledger.TxID, error) {
	if len(k) != 5 || k[0] != transactionPrefix {
		return 0, fmt.Errorf("malformed transaction key %q", k)
	}
	return ledger.TxID(binary.BigEndian.Uint32(k[1:])), nil
}

// record is the self-describing envelope every value is wrapped in.
// Carrying Key redundantly in the value lets an operator recover data even
// if the key encoding changes across versions.
type record struct {
	Key   []byte
	Value []byte
}

func encodeRecord(key []byte, payload any) ([]byte, error) {
	var valueBuf bytes.Buffer
	if err := gob.NewEncoder(&valueBuf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record{Key: key, Value: valueBuf.Bytes()}); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(raw []byte, out any) error {
	var rec record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(rec.Value)).Decode(out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
