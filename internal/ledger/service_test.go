package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rasid/internal/core"
	"rasid/internal/memory"
)

// recordingMirror captures dispatched snapshots for assertions.
type recordingMirror struct {
	mu    sync.Mutex
	snaps []core.Snapshot
}

func (m *recordingMirror) Push(_ context.Context, snap core.Snapshot) <-chan error {
	m.mu.Lock()
	m.snaps = append(m.snaps, snap)
	m.mu.Unlock()
	done := make(chan error, 1)
	done <- nil
	return done
}

func (m *recordingMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

func newService(accounts []core.Account) (*Service, *recordingMirror) {
	mirror := &recordingMirror{}
	store := memory.NewWithState(accounts, nil)
	return New(store, mirror), mirror
}

func depositILS(amount float64, date time.Time) TransactionInput {
	return TransactionInput{AccountID: "1", Type: core.Deposit, Amount: amount, Currency: core.ILS, Date: date}
}

var testDate = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func TestAddAccount(t *testing.T) {
	ctx := context.Background()
	svc, mirror := newService(nil)

	account, err := svc.AddAccount(ctx, "  أحمد محمد  ", "0501234567")
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	if account.ID == "" || account.Name != "أحمد محمد" || account.Balance != 0 {
		t.Fatalf("account = %+v", account)
	}
	if account.CreatedAt.IsZero() || !account.LastTransactionDate.IsZero() {
		t.Fatalf("account dates = %+v", account)
	}

	accounts, err := svc.Accounts(ctx)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if mirror.count() != 1 {
		t.Fatalf("expected 1 mirror push, got %d", mirror.count())
	}
}

func TestAddAccountEmptyName(t *testing.T) {
	svc, mirror := newService(nil)
	if _, err := svc.AddAccount(context.Background(), "   ", ""); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if mirror.count() != 0 {
		t.Fatal("blocked mutation must not be mirrored")
	}
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	created := testDate.AddDate(0, -1, 0)
	svc, _ := newService([]core.Account{
		{ID: "1", Name: "old", PhoneNumber: "050", Balance: 70, CreatedAt: created, LastTransactionDate: testDate},
	})

	updated, err := svc.UpdateAccount(ctx, "1", "new name", "056")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new name" || updated.PhoneNumber != "056" {
		t.Fatalf("updated = %+v", updated)
	}
	// Balance and dates are untouched by an edit.
	if updated.Balance != 70 || !updated.CreatedAt.Equal(created) || !updated.LastTransactionDate.Equal(testDate) {
		t.Fatalf("edit touched protected fields: %+v", updated)
	}

	if _, err := svc.UpdateAccount(ctx, "missing", "x", ""); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAccountIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}})

	if err := svc.DeleteAccount(ctx, "1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteAccount(ctx, "1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	accounts, _ := svc.Accounts(ctx)
	if len(accounts) != 1 || accounts[0].ID != "2" {
		t.Fatalf("accounts = %+v", accounts)
	}
}

func TestDeleteAccountKeepsTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}})

	if _, err := svc.RecordTransaction(ctx, depositILS(100, testDate)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.DeleteAccount(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	transactions, _ := svc.Transactions(ctx)
	if len(transactions) != 1 || transactions[0].AccountID != "1" {
		t.Fatalf("transactions = %+v", transactions)
	}
}

// The worked example: 0 → +100 ILS → -30 ILS → +10 USD @3.5 → 105.
func TestBalanceFold(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}})

	steps := []struct {
		in   TransactionInput
		want float64
	}{
		{depositILS(100, testDate), 100},
		{TransactionInput{AccountID: "1", Type: core.Withdrawal, Amount: 30, Currency: core.ILS, Date: testDate}, 70},
		{TransactionInput{AccountID: "1", Type: core.Deposit, Amount: 10, Currency: core.USD, ExchangeRate: 3.5, Date: testDate}, 105},
	}
	for i, step := range steps {
		if _, err := svc.RecordTransaction(ctx, step.in); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		accounts, _ := svc.Accounts(ctx)
		if accounts[0].Balance != step.want {
			t.Fatalf("step %d: balance = %v, want %v", i, accounts[0].Balance, step.want)
		}
	}
}

func TestRecordTransactionInterleavedAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}})

	ins := []TransactionInput{
		{AccountID: "1", Type: core.Deposit, Amount: 10, Currency: core.ILS, Date: testDate},
		{AccountID: "2", Type: core.Deposit, Amount: 100, Currency: core.ILS, Date: testDate},
		{AccountID: "1", Type: core.Withdrawal, Amount: 4, Currency: core.ILS, Date: testDate},
		{AccountID: "2", Type: core.Withdrawal, Amount: 25, Currency: core.ILS, Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: 1, Currency: core.USD, ExchangeRate: 2, Date: testDate},
	}
	for i, in := range ins {
		if _, err := svc.RecordTransaction(ctx, in); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	accounts, _ := svc.Accounts(ctx)
	byID := map[string]float64{}
	for _, a := range accounts {
		byID[a.ID] = a.Balance
	}
	if byID["1"] != 8 {
		t.Fatalf("account 1 balance = %v, want 8", byID["1"])
	}
	if byID["2"] != 75 {
		t.Fatalf("account 2 balance = %v, want 75", byID["2"])
	}
}

func TestRecordTransactionUnknownAccount(t *testing.T) {
	ctx := context.Background()
	svc, mirror := newService([]core.Account{{ID: "1", Name: "a", Balance: 50}})

	tx, err := svc.RecordTransaction(ctx, TransactionInput{
		AccountID: "ghost", Type: core.Deposit, Amount: 10, Currency: core.ILS, Date: testDate,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("transaction not created")
	}

	// The log grew; no balance moved.
	transactions, _ := svc.Transactions(ctx)
	if len(transactions) != 1 {
		t.Fatalf("transactions = %+v", transactions)
	}
	accounts, _ := svc.Accounts(ctx)
	if accounts[0].Balance != 50 {
		t.Fatalf("balance = %v, want 50", accounts[0].Balance)
	}
	if mirror.count() != 1 {
		t.Fatalf("mirror pushes = %d, want 1", mirror.count())
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	ctx := context.Background()
	svc, mirror := newService([]core.Account{{ID: "1", Name: "a"}})

	cases := []TransactionInput{
		{AccountID: "1", Type: core.Deposit, Amount: 0, Currency: core.ILS, Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: -1, Currency: core.ILS, Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: 1, Currency: core.USD, Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: 1, Currency: core.USD, ExchangeRate: -3, Date: testDate},
		{AccountID: "1", Type: "TRANSFER", Amount: 1, Currency: core.ILS, Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: 1, Currency: "EUR", Date: testDate},
		{AccountID: "1", Type: core.Deposit, Amount: 1, Currency: core.ILS},
	}
	for i, in := range cases {
		if _, err := svc.RecordTransaction(ctx, in); !errors.Is(err, core.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	transactions, _ := svc.Transactions(ctx)
	if len(transactions) != 0 {
		t.Fatal("blocked transactions must not be logged")
	}
	if mirror.count() != 0 {
		t.Fatal("blocked mutations must not be mirrored")
	}
}

func TestRecordTransactionDropsRateForILS(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}})

	tx, err := svc.RecordTransaction(ctx, TransactionInput{
		AccountID: "1", Type: core.Deposit, Amount: 10, Currency: core.ILS, ExchangeRate: 3.5, Date: testDate,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.ExchangeRate != 0 {
		t.Fatalf("ILS transaction kept a rate: %v", tx.ExchangeRate)
	}
	accounts, _ := svc.Accounts(ctx)
	if accounts[0].Balance != 10 {
		t.Fatalf("balance = %v, want 10", accounts[0].Balance)
	}
}

func TestLastTransactionDateFollowsRecordingOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}})

	later := testDate.AddDate(0, 1, 0)
	earlier := testDate

	if _, err := svc.RecordTransaction(ctx, depositILS(10, later)); err != nil {
		t.Fatalf("record: %v", err)
	}
	// A past-dated entry recorded afterwards moves the field backward.
	if _, err := svc.RecordTransaction(ctx, depositILS(10, earlier)); err != nil {
		t.Fatalf("record: %v", err)
	}
	accounts, _ := svc.Accounts(ctx)
	if !accounts[0].LastTransactionDate.Equal(earlier) {
		t.Fatalf("lastTransactionDate = %v, want %v", accounts[0].LastTransactionDate, earlier)
	}
}

func TestImportSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, mirror := newService([]core.Account{{ID: "old", Name: "old"}})

	raw := []byte(`{
		"accounts": [{"id": "n1", "name": "جديد", "balance": 12.5, "createdAt": "2025-01-01T00:00:00Z"}],
		"transactions": []
	}`)
	snap, err := svc.ImportSnapshot(ctx, raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "n1" {
		t.Fatalf("snap = %+v", snap)
	}
	accounts, _ := svc.Accounts(ctx)
	if len(accounts) != 1 || accounts[0].ID != "n1" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if mirror.count() != 1 {
		t.Fatalf("mirror pushes = %d, want 1", mirror.count())
	}
}

func TestImportSnapshotInvalidFormat(t *testing.T) {
	ctx := context.Background()
	svc, mirror := newService([]core.Account{{ID: "old", Name: "old"}})

	if _, err := svc.ImportSnapshot(ctx, []byte(`{"accounts": []}`)); !errors.Is(err, core.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	// Nothing applied, nothing mirrored.
	accounts, _ := svc.Accounts(ctx)
	if len(accounts) != 1 || accounts[0].ID != "old" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if mirror.count() != 0 {
		t.Fatal("failed import must not be mirrored")
	}
}

func TestSyncEndpoint(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(nil)

	if err := svc.SetSyncEndpoint(ctx, "https://script.google.com/macros/s/abc/exec"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := svc.SyncEndpoint(ctx)
	if err != nil || got != "https://script.google.com/macros/s/abc/exec" {
		t.Fatalf("got %q (%v)", got, err)
	}

	// Clearing is allowed; junk is not.
	if err := svc.SetSyncEndpoint(ctx, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := svc.SetSyncEndpoint(ctx, "not a url"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService([]core.Account{{ID: "1", Name: "a"}})

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordTransaction(ctx, depositILS(100, testDate.AddDate(0, i, 0))); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	d, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalAccounts != 1 || d.TotalBalance != 300 {
		t.Fatalf("dashboard = %+v", d)
	}
	if len(d.MonthlyActivity) != 3 || len(d.RecentTransactions) != 3 {
		t.Fatalf("dashboard = %+v", d)
	}
}

func TestNilMirror(t *testing.T) {
	svc := New(memory.NewWithState(nil, nil), nil)
	if _, err := svc.AddAccount(context.Background(), "a", ""); err != nil {
		t.Fatalf("mutation with nil mirror failed: %v", err)
	}
}
