package e2e_test

import (
	"github.com/shopspring/decimal"
	. "github.com/onsi/ginkgo/v2"
	"github.com/stretchr/testify/require"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/engine"
)

func d(s string) ledger.Amount {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func deposit(c ledger.Client, tx ledger.TxID, amt string) ledger.Event {
	return ledger.Event{Type: ledger.Deposit, Client: c, TxID: tx, Amount: d(amt), HasAmount: true}
}

func withdrawal(c ledger.Client, tx ledger.TxID, amt string) ledger.Event {
	return ledger.Event{Type: ledger.Withdrawal, Client: c, TxID: tx, Amount: d(amt), HasAmount: true}
}

func dispute(c ledger.Client, tx ledger.TxID) ledger.Event {
	return ledger.Event{Type: ledger.Dispute, Client: c, TxID: tx}
}

func resolve(c ledger.Client, tx ledger.TxID) ledger.Event {
	return ledger.Event{Type: ledger.Resolve, Client: c, TxID: tx}
}

func chargeback(c ledger.Client, tx ledger.TxID) ledger.Event {
	return ledger.Event{Type: ledger.Chargeback, Client: c, TxID: tx}
}

var _ = Describe("a full transaction lifecycle across three clients", func() {
	var eng *engine.Engine

	BeforeEach(func() {
		var err error
		eng, err = engine.Open(engine.Config{Concurrency: 1}, nil)
		require.NoError(GinkgoT(), err)
	})

	AfterEach(func() {
		require.NoError(GinkgoT(), eng.Close())
	})

	It("applies deposits, disputes and a chargeback to the expected final balances", func() {
		events := []ledger.Event{
			deposit(1, 1, "1.0"),
			deposit(2, 2, "2.0"),
			deposit(3, 3, "3.0"),
			withdrawal(1, 4, "1.1"),       // rejected: insufficient funds
			withdrawal(2, 5, "1.1111"),    // applied
			dispute(1, 1),                 // applied
			resolve(1, 3),                 // rejected: wrong client
			resolve(1, 1),                 // applied, tx1 now finalized
			dispute(1, 1),                 // rejected: no longer disputable
			dispute(2, 2),                 // rejected: insufficient funds for dispute
			deposit(2, 6, "4.1111"),       // applied
			dispute(2, 2),                 // applied
			chargeback(2, 2),              // applied, locks client 2
		}
		for _, evt := range events {
			require.NoError(GinkgoT(), eng.Dispatch(evt))
		}
		require.NoError(GinkgoT(), eng.Finish())

		got := map[ledger.Client]ledger.Account{}
		require.NoError(GinkgoT(), eng.Accounts(func(c ledger.Client, acc ledger.Account) error {
			got[c] = acc
			return nil
		}))

		require.True(GinkgoT(), got[1].Available.Equal(d("1.0")))
		require.True(GinkgoT(), got[1].Held.IsZero())
		require.True(GinkgoT(), got[1].Total.Equal(d("1.0")))
		require.False(GinkgoT(), got[1].Locked)

		require.True(GinkgoT(), got[2].Available.Equal(d("3.0")))
		require.True(GinkgoT(), got[2].Held.IsZero())
		require.True(GinkgoT(), got[2].Total.Equal(d("3.0")))
		require.True(GinkgoT(), got[2].Locked)

		require.True(GinkgoT(), got[3].Available.Equal(d("3.0")))
		require.True(GinkgoT(), got[3].Total.Equal(d("3.0")))
		require.False(GinkgoT(), got[3].Locked)
	})
})

var _ = Describe("account locking", func() {
	It("is permanent: a locked account rejects every later deposit", func() {
		eng, err := engine.Open(engine.Config{Concurrency: 1}, nil)
		require.NoError(GinkgoT(), err)
		defer eng.Close()

		for _, evt := range []ledger.Event{
			deposit(1, 1, "5"),
			dispute(1, 1),
			chargeback(1, 1),
			deposit(1, 2, "5"),
		} {
			require.NoError(GinkgoT(), eng.Dispatch(evt))
		}
		require.NoError(GinkgoT(), eng.Finish())

		var acc ledger.Account
		require.NoError(GinkgoT(), eng.Accounts(func(c ledger.Client, a ledger.Account) error {
			if c == 1 {
				acc = a
			}
			return nil
		}))
		require.True(GinkgoT(), acc.Available.IsZero())
		require.True(GinkgoT(), acc.Total.IsZero())
		require.True(GinkgoT(), acc.Locked)
	})
})
