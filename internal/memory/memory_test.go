package memory

import (
	"context"
	"testing"

	"rasid/internal/core"
)

func TestLoadSeedsOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	accounts, err := s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 seeded accounts, got %d", len(accounts))
	}
	transactions, err := s.LoadTransactions(ctx)
	if err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("expected 3 seeded transactions, got %d", len(transactions))
	}

	// A saved empty set must stay empty: seeding happens only before the
	// first store.
	if err := s.SaveAccounts(ctx, nil); err != nil {
		t.Fatalf("save accounts: %v", err)
	}
	accounts, err = s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Fatalf("expected empty set after empty save, got %d", len(accounts))
	}
}

func TestSaveIsFullReplace(t *testing.T) {
	ctx := context.Background()
	s := New()

	want := []core.Account{{ID: "x", Name: "only one"}}
	if err := s.SaveAccounts(ctx, want); err != nil {
		t.Fatalf("save accounts: %v", err)
	}
	got, err := s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewWithState([]core.Account{{ID: "1", Name: "a", Balance: 10}}, nil)

	first, _ := s.LoadAccounts(ctx)
	first[0].Balance = 999

	second, _ := s.LoadAccounts(ctx)
	if second[0].Balance != 10 {
		t.Fatalf("internal state mutated through a returned slice: %v", second[0].Balance)
	}
}

func TestSyncEndpoint(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, err := s.LoadSyncEndpoint(ctx)
	if err != nil || got != "" {
		t.Fatalf("expected empty endpoint, got %q (%v)", got, err)
	}
	if err := s.SaveSyncEndpoint(ctx, "https://example.com/hook"); err != nil {
		t.Fatalf("save endpoint: %v", err)
	}
	got, err = s.LoadSyncEndpoint(ctx)
	if err != nil || got != "https://example.com/hook" {
		t.Fatalf("got %q (%v)", got, err)
	}
}
