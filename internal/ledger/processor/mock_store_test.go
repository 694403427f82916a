package processor_test

import (
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/store"
)

// mockStore is a hand-written gomock-style Store double, in the shape
// `mockgen` would otherwise generate. Written by hand since no generator
// runs in this build; only PutAccount is recorded against the controller,
// and every method delegates to the wrapped Store.
type mockStore struct {
	ctrl     *gomock.Controller
	delegate store.Store
}

func newMockStore(ctrl *gomock.Controller, delegate store.Store) *mockStore {
	return &mockStore{ctrl: ctrl, delegate: delegate}
}

func (m *mockStore) EXPECT() *mockStoreRecorder { return &mockStoreRecorder{m} }

type mockStoreRecorder struct{ m *mockStore }

func (r *mockStoreRecorder) PutAccount(client, acc any) *gomock.Call {
	return r.m.ctrl.RecordCallWithMethodType(r.m, "PutAccount", reflect.TypeOf((*mockStore)(nil).PutAccount), client, acc)
}

func (m *mockStore) GetAccount(client ledger.Client) (ledger.Account, bool, error) {
	return m.delegate.GetAccount(client)
}

func (m *mockStore) PutAccount(client ledger.Client, acc ledger.Account) error {
	m.ctrl.Call(m, "PutAccount", client, acc)
	return m.delegate.PutAccount(client, acc)
}

func (m *mockStore) IterAccounts() (store.AccountIterator, error) { return m.delegate.IterAccounts() }

func (m *mockStore) GetTransaction(tx ledger.TxID) (ledger.Transaction, bool, error) {
	return m.delegate.GetTransaction(tx)
}

func (m *mockStore) PutTransaction(tx ledger.TxID, t ledger.Transaction) error {
	return m.delegate.PutTransaction(tx, t)
}

func (m *mockStore) IterTransactions() (store.TxIterator, error) {
	return m.delegate.IterTransactions()
}

func (m *mockStore) Policy() ledger.Policy { return m.delegate.Policy() }

func (m *mockStore) Close() error { return m.delegate.Close() }
