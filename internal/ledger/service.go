// Package ledger implements the consistency engine: the rules by which
// transactions mutate account balances. Balances are an incrementally
// maintained fold over the transaction log in recording order; the engine
// never recomputes them from scratch on a read.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"rasid/internal/backup"
	"rasid/internal/core"
	"rasid/internal/stats"
)

// Service owns the mutable ledger state. There is exactly one logical
// writer, so a single mutex serializes mutations: every operation
// completes fully, persistence included, before the next is accepted.
// The mirror push happens after that, off the caller's path.
type Service struct {
	mu     sync.Mutex
	store  Store
	mirror Mirror // optional; nil disables mirroring
}

func New(store Store, mirror Mirror) *Service {
	return &Service{store: store, mirror: mirror}
}

// TransactionInput carries the user-supplied fields of a new transaction.
type TransactionInput struct {
	AccountID    string
	Type         core.TransactionType
	Amount       float64
	Currency     core.Currency
	ExchangeRate float64
	Date         time.Time
	Notes        string
}

// AddAccount creates an account with a fresh id and a zero balance.
func (s *Service) AddAccount(ctx context.Context, name, phoneNumber string) (core.Account, error) {
	account := core.Account{
		ID:          core.NewID(),
		Name:        strings.TrimSpace(name),
		PhoneNumber: strings.TrimSpace(phoneNumber),
		CreatedAt:   time.Now(),
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return core.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	accounts = append(accounts, account)
	if err := s.store.SaveAccounts(ctx, accounts); err != nil {
		return core.Account{}, fmt.Errorf("save accounts: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", account.ID, "name", account.Name)
	s.dispatchMirror(ctx)
	return account, nil
}

// UpdateAccount replaces the name and phone number of an existing
// account. Balance, creation time and last transaction date are never
// touched here.
func (s *Service) UpdateAccount(ctx context.Context, id, name, phoneNumber string) (core.Account, error) {
	updated := core.Account{Name: strings.TrimSpace(name)}
	if err := updated.Validate(); err != nil {
		return core.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return core.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	idx := -1
	for i := range accounts {
		if accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Account{}, fmt.Errorf("update account %s: %w", id, core.ErrNotFound)
	}
	accounts[idx].Name = strings.TrimSpace(name)
	accounts[idx].PhoneNumber = strings.TrimSpace(phoneNumber)
	if err := s.store.SaveAccounts(ctx, accounts); err != nil {
		return core.Account{}, fmt.Errorf("save accounts: %w", err)
	}

	slog.InfoContext(ctx, "Account updated", "id", id, "name", accounts[idx].Name)
	s.dispatchMirror(ctx)
	return accounts[idx], nil
}

// DeleteAccount removes the account from the account set. Its
// transactions stay in the log as dangling references. Deleting a missing
// id is a no-op, so the operation is idempotent.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	kept := accounts[:0]
	removed := false
	for _, a := range accounts {
		if a.ID == id {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return nil
	}
	if err := s.store.SaveAccounts(ctx, kept); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted", "id", id)
	s.dispatchMirror(ctx)
	return nil
}

// RecordTransaction validates and appends a transaction to the log, then
// applies it to the target account's balance. Logging and balance
// maintenance are deliberately decoupled: a transaction against a missing
// account is still recorded, it just moves no balance. When the account
// exists, its last transaction date becomes the transaction's own date,
// which can move backward for past-dated entries; that is the recorded
// behavior, not a bug.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		ID:           core.NewID(),
		AccountID:    in.AccountID,
		Amount:       in.Amount,
		Currency:     in.Currency,
		ExchangeRate: in.ExchangeRate,
		Type:         in.Type,
		Date:         in.Date,
		Notes:        strings.TrimSpace(in.Notes),
	}
	if tx.Currency == core.ILS {
		// Rate is defined iff the currency is the secondary one.
		tx.ExchangeRate = 0
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	delta, err := core.Normalize(tx.Amount, tx.Currency, tx.ExchangeRate)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Type == core.Withdrawal {
		delta = -delta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transactions, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transactions: %w", err)
	}
	transactions = append(transactions, tx)
	if err := s.store.SaveTransactions(ctx, transactions); err != nil {
		return core.Transaction{}, fmt.Errorf("save transactions: %w", err)
	}

	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load accounts: %w", err)
	}
	applied := false
	for i := range accounts {
		if accounts[i].ID != tx.AccountID {
			continue
		}
		accounts[i].Balance += delta
		accounts[i].LastTransactionDate = tx.Date
		applied = true
		break
	}
	if applied {
		if err := s.store.SaveAccounts(ctx, accounts); err != nil {
			return core.Transaction{}, fmt.Errorf("save accounts: %w", err)
		}
	} else {
		slog.WarnContext(ctx, "Transaction recorded against unknown account",
			"transaction_id", tx.ID, "account_id", tx.AccountID)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID, "account_id", tx.AccountID, "type", tx.Type,
		"amount", tx.Amount, "currency", tx.Currency, "applied", applied)
	s.dispatchMirror(ctx)
	return tx, nil
}

// Accounts returns the current account set.
func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadAccounts(ctx)
}

// Transactions returns the transaction log in recording order.
func (s *Service) Transactions(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadTransactions(ctx)
}

// Snapshot returns the full current state.
func (s *Service) Snapshot(ctx context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx)
}

// Dashboard computes the derived dashboard statistics on demand.
func (s *Service) Dashboard(ctx context.Context) (stats.Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return stats.Dashboard{}, err
	}
	return stats.Compute(snap.Accounts, snap.Transactions), nil
}

// ImportSnapshot replaces the whole state with a parsed backup payload.
// An invalid payload blocks the import entirely: nothing is applied or
// persisted.
func (s *Service) ImportSnapshot(ctx context.Context, raw []byte) (core.Snapshot, error) {
	snap, err := backup.Parse(raw)
	if err != nil {
		return core.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveAccounts(ctx, snap.Accounts); err != nil {
		return core.Snapshot{}, fmt.Errorf("save accounts: %w", err)
	}
	if err := s.store.SaveTransactions(ctx, snap.Transactions); err != nil {
		return core.Snapshot{}, fmt.Errorf("save transactions: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot imported",
		"accounts", len(snap.Accounts), "transactions", len(snap.Transactions))
	s.dispatchMirror(ctx)
	return snap, nil
}

// SyncEndpoint returns the configured remote mirror URL, empty when none.
func (s *Service) SyncEndpoint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadSyncEndpoint(ctx)
}

// SetSyncEndpoint stores the remote mirror URL. An empty string disables
// mirroring; anything else must be an absolute http(s) URL.
func (s *Service) SetSyncEndpoint(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: sync endpoint must be an http(s) URL", core.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveSyncEndpoint(ctx, endpoint); err != nil {
		return fmt.Errorf("save sync endpoint: %w", err)
	}
	slog.InfoContext(ctx, "Sync endpoint updated", "configured", endpoint != "")
	return nil
}

func (s *Service) snapshotLocked(ctx context.Context) (core.Snapshot, error) {
	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	transactions, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	return core.Snapshot{Accounts: accounts, Transactions: transactions}, nil
}

// dispatchMirror hands the current snapshot to the mirror and walks away.
// Called with the mutex held; the push itself runs asynchronously and its
// result channel is deliberately dropped.
func (s *Service) dispatchMirror(ctx context.Context) {
	if s.mirror == nil {
		return
	}
	snap, err := s.snapshotLocked(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Mirror snapshot load failed", "error", err)
		return
	}
	_ = s.mirror.Push(ctx, snap)
}
