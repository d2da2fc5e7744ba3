// Package seed holds the demo data set installed by persistence
// gateways on first load, before anything was ever stored.
package seed

import (
	"time"

	"rasid/internal/core"
)

// Accounts returns the default account set.
func Accounts(now time.Time) []core.Account {
	return []core.Account{
		{ID: "1", Name: "أحمد محمد", PhoneNumber: "0501234567", Balance: 5000, CreatedAt: now, LastTransactionDate: now},
		{ID: "2", Name: "شركة النور", PhoneNumber: "0509876543", Balance: 12500, CreatedAt: now, LastTransactionDate: now},
		{ID: "3", Name: "خالد العمري", PhoneNumber: "0561122334", Balance: -200, CreatedAt: now, LastTransactionDate: now},
	}
}

// Transactions returns the default transaction log.
func Transactions(now time.Time) []core.Transaction {
	return []core.Transaction{
		{ID: "101", AccountID: "1", Amount: 5000, Currency: core.ILS, Type: core.Deposit, Date: now, Notes: "دفعة أولى"},
		{ID: "102", AccountID: "2", Amount: 15000, Currency: core.ILS, Type: core.Deposit, Date: now, Notes: "مشروع التصميم"},
		{ID: "103", AccountID: "2", Amount: 2500, Currency: core.ILS, Type: core.Withdrawal, Date: now, Notes: "شراء مواد"},
	}
}
