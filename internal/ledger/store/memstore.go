package store

import (
	"sort"
	"sync"

	"github.com/toybank/ledger/internal/ledger"
)

// MemStore is two hash maps guarded by a single RWMutex. It is cheap to
// construct per shard, which is the default runtime path: each Lane gets
// its own MemStore rather than sharing one behind a lock.
type MemStore struct {
	mu           sync.RWMutex
	accounts     map[ledger.Client]ledger.Account
	transactions map[ledger.TxID]ledger.Transaction
	policy       ledger.Policy
}

// NewMemStore returns an empty in-memory store carrying policy.
func NewMemStore(policy ledger.Policy) *MemStore {
	return &MemStore{
		accounts:     make(map[ledger.Client]ledger.Account),
		transactions: make(map[ledger.TxID]ledger.Transaction),
		policy:       policy,
	}
}

func (s *MemStore) GetAccount(client ledger.Client) (ledger.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[client]
	return acc, ok, nil
}

func (s *MemStore) PutAccount(client ledger.Client, acc ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[client] = acc
	return nil
}

func (s *MemStore) GetTransaction(tx ledger.TxID) (ledger.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[tx]
	return t, ok, nil
}

func (s *MemStore) PutTransaction(tx ledger.TxID, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx] = t
	return nil
}

func (s *MemStore) Policy() ledger.Policy { return s.policy }

func (s *MemStore) Close() error { return nil }

func (s *MemStore) IterAccounts() (AccountIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]ledger.Client, 0, len(s.accounts))
	for c := range s.accounts {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	snapshot := make(map[ledger.Client]ledger.Account, len(s.accounts))
	for c, a := range s.accounts {
		snapshot[c] = a
	}
	return &memAccountIter{clients: clients, accounts: snapshot, idx: -1}, nil
}

func (s *MemStore) IterTransactions() (TxIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ledger.TxID, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	snapshot := make(map[ledger.TxID]ledger.Transaction, len(s.transactions))
	for id, t := range s.transactions {
		snapshot[id] = t
	}
	return &memTxIter{ids: ids, txs: snapshot, idx: -1}, nil
}

type memAccountIter struct {
	clients  []ledger.Client
	accounts map[ledger.Client]ledger.Account
	idx      int
}

func (it *memAccountIter) Next() bool {
	it.idx++
	return it.idx < len(it.clients)
}

func (it *memAccountIter) Account() (ledger.Client, ledger.Account) {
	c := it.clients[it.idx]
	return c, it.accounts[c]
}

func (it *memAccountIter) Err() error   { return nil }
func (it *memAccountIter) Close() error { return nil }

type memTxIter struct {
	ids []ledger.TxID
	txs map[ledger.TxID]ledger.Transaction
	idx int
}

func (it *memTxIter) Next() bool {
	it.idx++
	return it.idx < len(it.ids)
}

func (it *memTxIter) Tx() (ledger.TxID, ledger.Transaction) {
	id := it.ids[it.idx]
	return id, it.txs[id]
}

func (it *memTxIter) Err() error   { return nil }
func (it *memTxIter) Close() error { return nil }
