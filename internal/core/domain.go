package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
)

const (
	// ILS is the base currency: every account balance is stored in it.
	ILS Currency = "ILS"
	// USD is the secondary currency; amounts in USD carry a
	// per-transaction exchange rate used to convert into ILS.
	USD Currency = "USD"
)

type (
	TransactionType string
	Currency        string

	Account struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		PhoneNumber string  `json:"phoneNumber,omitempty"`
		Balance     float64 `json:"balance"`
		CreatedAt   time.Time `json:"createdAt"`
		// LastTransactionDate is the date of the most recently recorded
		// transaction against this account. Zero means none yet.
		LastTransactionDate time.Time `json:"lastTransactionDate,omitzero"`
	}

	Transaction struct {
		ID        string `json:"id"`
		// AccountID is a non-owning lookup key. The referenced account may
		// have been deleted; the transaction stays valid regardless.
		AccountID string          `json:"accountId"`
		Amount    float64         `json:"amount"`
		Currency  Currency        `json:"currency"`
		// ExchangeRate is set if and only if Currency is USD.
		ExchangeRate float64         `json:"exchangeRate,omitzero"`
		Type         TransactionType `json:"type"`
		Date         time.Time       `json:"date"`
		Notes        string          `json:"notes,omitempty"`
	}

	// Snapshot is the full ledger state at a point in time. Mirror pushes
	// and backups always carry a whole snapshot, never a delta.
	Snapshot struct {
		Accounts     []Account     `json:"accounts"`
		Transactions []Transaction `json:"transactions"`
	}
)

var (
	// ErrNotFound reports an operation against a missing account. It applies
	// to account update only: deletes are idempotent and transaction
	// recording tolerates missing accounts.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidInput is the umbrella for caller-side validation failures.
	// The specific sentinels below wrap it.
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyName       = fmt.Errorf("%w: account name is required", ErrInvalidInput)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrInvalidRate     = fmt.Errorf("%w: exchange rate must be a positive finite number", ErrInvalidInput)
	ErrMissingDate     = fmt.Errorf("%w: transaction date is required", ErrInvalidInput)
	ErrUnknownCurrency = fmt.Errorf("%w: unknown currency", ErrInvalidInput)
	ErrUnknownType     = fmt.Errorf("%w: unknown transaction type", ErrInvalidInput)

	// ErrInvalidFormat reports a backup payload missing the required
	// accounts/transactions fields.
	ErrInvalidFormat = errors.New("invalid backup format")
)

// NewID allocates a fresh opaque identifier. IDs are unique per entity
// type and never reused.
func NewID() string {
	return uuid.NewString()
}

func (c Currency) Validate() error {
	switch c {
	case ILS, USD:
		return nil
	default:
		return ErrUnknownCurrency
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Deposit, Withdrawal:
		return nil
	default:
		return ErrUnknownType
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Currency.Validate(); err != nil {
		return err
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if t.Currency == USD {
		if _, err := Normalize(t.Amount, t.Currency, t.ExchangeRate); err != nil {
			return err
		}
	}
	return nil
}

// Signed returns the transaction's base-currency delta: positive for a
// deposit, negative for a withdrawal.
func (t Transaction) Signed() float64 {
	if t.Type == Withdrawal {
		return -t.BaseAmount()
	}
	return t.BaseAmount()
}
