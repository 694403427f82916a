package store_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/store"
)

func openEphemeral(t *testing.T) *store.PebbleStore {
	t.Helper()
	s, err := store.Open(store.Options{Ephemeral: true, Policy: ledger.Policy{}})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestPebbleStoreRoundTrip(t *testing.T) {
	s := openEphemeral(t)

	acc := ledger.Account{Available: decimal.NewFromInt(7), Total: decimal.NewFromInt(7)}
	require.NoError(t, s.PutAccount(5, acc))

	got, ok, err := s.GetAccount(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Available.Equal(acc.Available))

	tx := ledger.Transaction{Client: 5, Amount: decimal.NewFromInt(7), State: ledger.Committed}
	require.NoError(t, s.PutTransaction(1, tx))

	gotTx, ok, err := s.GetTransaction(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledger.Committed, gotTx.State)
}

// Regression test: the account iterator previously called First() on every
// Next() invocation, which made it impossible to advance past the second
// record. With 5 distinct clients, iteration must visit every one exactly
// once in ascending key order.
func TestPebbleStoreIterAccountsVisitsAllRecords(t *testing.T) {
	s := openEphemeral(t)

	clients := []ledger.Client{5, 1, 4, 2, 3}
	for _, c := range clients {
		require.NoError(t, s.PutAccount(c, ledger.Account{Available: decimal.NewFromInt(int64(c))}))
	}

	it, err := s.IterAccounts()
	require.NoError(t, err)
	defer it.Close()

	var seen []ledger.Client
	for it.Next() {
		c, acc := it.Account()
		seen = append(seen, c)
		require.True(t, acc.Available.Equal(decimal.NewFromInt(int64(c))))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []ledger.Client{1, 2, 3, 4, 5}, seen)
}

func TestPebbleStoreIterTransactionsVisitsAllRecords(t *testing.T) {
	s := openEphemeral(t)

	for _, id := range []ledger.TxID{9, 1, 5, 2, 3} {
		require.NoError(t, s.PutTransaction(id, ledger.Transaction{Client: 1, State: ledger.Committed}))
	}

	it, err := s.IterTransactions()
	require.NoError(t, err)
	defer it.Close()

	var seen []ledger.TxID
	for it.Next() {
		id, _ := it.Tx()
		seen = append(seen, id)
	}
	require.NoError(t, it.Err())
	require.Equal(t, []ledger.TxID{1, 2, 3, 5, 9}, seen)
}

func TestPebbleStoreDropClearsContents(t *testing.T) {
	path := t.TempDir()

	s, err := store.Open(store.Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.PutAccount(1, ledger.Account{}))
	require.NoError(t, s.Close())

	s2, err := store.Open(store.Options{Path: path, Drop: true})
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.GetAccount(1)
	require.NoError(t, err)
	require.False(t, ok)
}
