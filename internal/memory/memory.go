// Package memory provides an in-process persistence gateway. It backs
// the default data backend and the engine tests, with the same seeding
// behavior as the durable store: the first load of an entity that was
// never stored installs the demo data set.
package memory

import (
	"context"
	"sync"
	"time"

	"rasid/internal/core"
	"rasid/internal/seed"
)

type Store struct {
	mu sync.Mutex

	accounts     []core.Account
	transactions []core.Transaction
	syncEndpoint string

	// Loads seed only until the first store of the same entity; an
	// explicitly saved empty set must stay empty.
	accountsStored     bool
	transactionsStored bool
}

// New returns an empty store that seeds demo data on first load.
func New() *Store {
	return &Store{}
}

// NewWithState returns a store pre-filled with the given state, with
// seeding disabled.
func NewWithState(accounts []core.Account, transactions []core.Transaction) *Store {
	return &Store{
		accounts:           append([]core.Account(nil), accounts...),
		transactions:       append([]core.Transaction(nil), transactions...),
		accountsStored:     true,
		transactionsStored: true,
	}
}

func (s *Store) LoadAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accountsStored {
		s.accounts = seed.Accounts(time.Now())
		s.accountsStored = true
	}
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transactionsStored {
		s.transactions = seed.Transactions(time.Now())
		s.transactionsStored = true
	}
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) SaveAccounts(_ context.Context, accounts []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]core.Account(nil), accounts...)
	s.accountsStored = true
	return nil
}

func (s *Store) SaveTransactions(_ context.Context, transactions []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), transactions...)
	s.transactionsStored = true
	return nil
}

func (s *Store) LoadSyncEndpoint(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncEndpoint, nil
}

func (s *Store) SaveSyncEndpoint(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEndpoint = endpoint
	return nil
}
