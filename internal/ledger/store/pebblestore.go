package store

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/toybank/ledger/internal/ledger"
)

// accountCacheSize bounds the read-through LRU PebbleStore keeps in front
// of account lookups. Hot clients (repeated deposits/withdrawals in a
// single run) are the common case; a small cache avoids round-tripping to
// Pebble on every event.
const accountCacheSize = 4096

// PebbleStore is the embedded-KV-engine Ledger Store, backed by
// github.com/cockroachdb/pebble. Two logical key spaces share one Pebble
// instance, distinguished by the prefixes in record.go.
type PebbleStore struct {
	db       *pebble.DB
	policy   ledger.Policy
	accounts *lru.Cache[ledger.Client, ledger.Account]
}

// Options configures how a PebbleStore opens its underlying engine.
type Options struct {
	// Path is the on-disk directory. Ignored when Ephemeral is true.
	Path string
	// Ephemeral opens Pebble against an in-memory vfs (vfs.NewMem()),
	// giving the "inmem" ledger name an ephemeral persistent-store
	// instance that exercises the same code path as a real on-disk store.
	Ephemeral bool
	// Drop clears the store's key range immediately after opening it.
	Drop bool
	Policy ledger.Policy
}

// Open opens (or creates) a Pebble-backed Store per opts.
func Open(opts Options) (*PebbleStore, error) {
	pOpts := &pebble.Options{}
	if opts.Ephemeral {
		pOpts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(opts.Path, pOpts)
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	cache, err := lru.New[ledger.Client, ledger.Account](accountCacheSize)
	if err != nil {
		return nil, fmt.Errorf("allocate account cache: %w", err)
	}
	s := &PebbleStore{db: db, policy: opts.Policy, accounts: cache}
	if opts.Drop {
		if err := s.dropAll(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *PebbleStore) dropAll() error {
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange([]byte{0x00}, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, nil); err != nil {
		return fmt.Errorf("drop store contents: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit drop: %w", err)
	}
	s.accounts.Purge()
	return nil
}

func (s *PebbleStore) Policy() ledger.Policy { return s.policy }

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) GetAccount(client ledger.Client) (ledger.Account, bool, error) {
	if acc, ok := s.accounts.Get(client); ok {
		return acc, true, nil
	}
	raw, closer, err := s.db.Get(accountKey(client))
	if err == pebble.ErrNotFound {
		return ledger.Account{}, false, nil
	}
	if err != nil {
		return ledger.Account{}, false, fmt.Errorf("get account %d: %w", client, err)
	}
	defer closer.Close()
	var acc ledger.Account
	if err := decodeRecord(raw, &acc); err != nil {
		return ledger.Account{}, false, fmt.Errorf("decode account %d: %w", client, err)
	}
	s.accounts.Add(client, acc)
	return acc, true, nil
}

func (s *PebbleStore) PutAccount(client ledger.Client, acc ledger.Account) error {
	key := accountKey(client)
	raw, err := encodeRecord(key, acc)
	if err != nil {
		return fmt.Errorf("encode account %d: %w", client, err)
	}
	if err := s.db.Set(key, raw, pebble.Sync); err != nil {
		return fmt.Errorf("put account %d: %w", client, err)
	}
	s.accounts.Add(client, acc)
	return nil
}

func (s *PebbleStore) GetTransaction(tx ledger.TxID) (ledger.Transaction, bool, error) {
	raw, closer, err := s.db.Get(txKey(tx))
	if err == pebble.ErrNotFound {
		return ledger.Transaction{}, false, nil
	}
	if err != nil {
		return ledger.Transaction{}, false, fmt.Errorf("get transaction %d: %w", tx, err)
	}
	defer closer.Close()
	var t ledger.Transaction
	if err := decodeRecord(raw, &t); err != nil {
		return ledger.Transaction{}, false, fmt.Errorf("decode transaction %d: %w", tx, err)
	}
	return t, true, nil
}

func (s *PebbleStore) PutTransaction(tx ledger.TxID, t ledger.Transaction) error {
	key := txKey(tx)
	raw, err := encodeRecord(key, t)
	if err != nil {
		return fmt.Errorf("encode transaction %d: %w", tx, err)
	}
	if err := s.db.Set(key, raw, pebble.Sync); err != nil {
		return fmt.Errorf("put transaction %d: %w", tx, err)
	}
	return nil
}

func (s *PebbleStore) IterAccounts() (AccountIterator, error) {
	lower := []byte{accountPrefix}
	upper := []byte{accountPrefix + 1}
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return &pebbleAccountIter{it: it, started: false}, nil
}

func (s *PebbleStore) IterTransactions() (TxIterator, error) {
	lower := []byte{transactionPrefix}
	upper := []byte{transactionPrefix + 1}
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return &pebbleTxIter{it: it, started: false}, nil
}

type pebbleAccountIter struct {
	it      *pebble.Iterator
	started bool
	err     error
	client  ledger.Client
	account ledger.Account
}

func (p *pebbleAccountIter) Next() bool {
	if p.err != nil {
		return false
	}
	var ok bool
	if !p.started {
		ok = p.it.First()
		p.started = true
	} else {
		ok = p.it.Next()
	}
	if !ok {
		return false
	}
	client, err := decodeAccountKey(p.it.Key())
	if err != nil {
		p.err = err
		return false
	}
	var acc ledger.Account
	if err := decodeRecord(p.it.Value(), &acc); err != nil {
		p.err = fmt.Errorf("decode account record: %w", err)
		return false
	}
	p.client, p.account = client, acc
	return true
}

func (p *pebbleAccountIter) Account() (ledger.Client, ledger.Account) { return p.client, p.account }
func (p *pebbleAccountIter) Err() error {
	if p.err != nil {
		return p.err
	}
	return p.it.Error()
}
func (p *pebbleAccountIter) Close() error { return p.it.Close() }

type pebbleTxIter struct {
	it      *pebble.Iterator
	started bool
	err     error
	id      ledger.TxID
	tx      ledger.Transaction
}

func (p *pebbleTxIter) Next() bool {
	if p.err != nil {
		return false
	}
	var ok bool
	if !p.started {
		ok = p.it.First()
		p.started = true
	} else {
		ok = p.it.Next()
	}
	if !ok {
		return false
	}
	id, err := decodeTxKey(p.it.Key())
	if err != nil {
		p.err = err
		return false
	}
	var t ledger.Transaction
	if err := decodeRecord(p.it.Value(), &t); err != nil {
		p.err = fmt.Errorf("decode transaction record: %w", err)
		return false
	}
	p.id, p.tx = id, t
	return true
}

func (p *pebbleTxIter) Tx() (ledger.TxID, ledger.Transaction) { return p.id, p.tx }
func (p *pebbleTxIter) Err() error {
	if p.err != nil {
		return p.err
	}
	return p.it.Error()
}
func (p *pebbleTxIter) Close() error { return p.it.Close() }
