package core

import (
	"errors"
	"testing"
	"time"
)

func TestCurrencyValidate(t *testing.T) {
	if err := ILS.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := USD.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Currency("EUR").Validate(); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestTransactionTypeValidate(t *testing.T) {
	if err := Deposit.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Withdrawal.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := TransactionType("TRANSFER").Validate(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "أحمد محمد"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, name := range []string{"", "   ", "\t"} {
		if err := (Account{Name: name}).Validate(); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("name %q: expected ErrEmptyName, got %v", name, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	good := Transaction{
		AccountID: "1",
		Amount:    100,
		Currency:  ILS,
		Type:      Deposit,
		Date:      date,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"zero amount", Transaction{Amount: 0, Currency: ILS, Type: Deposit, Date: date}, ErrInvalidAmount},
		{"negative amount", Transaction{Amount: -5, Currency: ILS, Type: Withdrawal, Date: date}, ErrInvalidAmount},
		{"missing date", Transaction{Amount: 10, Currency: ILS, Type: Deposit}, ErrMissingDate},
		{"bad currency", Transaction{Amount: 10, Currency: "EUR", Type: Deposit, Date: date}, ErrUnknownCurrency},
		{"bad type", Transaction{Amount: 10, Currency: ILS, Type: "TRANSFER", Date: date}, ErrUnknownType},
		{"usd without rate", Transaction{Amount: 10, Currency: USD, Type: Deposit, Date: date}, ErrInvalidRate},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		// Every validation failure is an InvalidInput to callers.
		if err := tc.tx.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected error to wrap ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestSigned(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	dep := Transaction{Amount: 10, Currency: USD, ExchangeRate: 3.5, Type: Deposit, Date: date}
	if got := dep.Signed(); got != 35 {
		t.Fatalf("deposit signed = %v, want 35", got)
	}
	wd := Transaction{Amount: 30, Currency: ILS, Type: Withdrawal, Date: date}
	if got := wd.Signed(); got != -30 {
		t.Fatalf("withdrawal signed = %v, want -30", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
