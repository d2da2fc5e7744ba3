// Package stats derives dashboard figures from the account set and the
// transaction log. It is purely computational: callers load state through
// the persistence gateway and hand it in.
package stats

import (
	"sort"
	"strconv"

	"rasid/internal/core"
)

// monthlyWindow is how many month buckets the dashboard chart shows.
const monthlyWindow = 6

// recentWindow is how many transactions the activity feed shows.
const recentWindow = 5

// MonthBucket aggregates deposits and withdrawals (in ILS) for one
// calendar month. Name is "M/YYYY" without zero padding.
type MonthBucket struct {
	Name        string  `json:"name"`
	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`
}

// Dashboard mirrors the stat cards, monthly chart and activity feed of
// the dashboard page.
type Dashboard struct {
	TotalAccounts      int                `json:"totalAccounts"`
	TotalBalance       float64            `json:"totalBalance"`
	MonthlyActivity    []MonthBucket      `json:"monthlyActivity"`
	RecentTransactions []core.Transaction `json:"recentTransactions"`
}

// TotalBalance sums the current balances of all accounts.
func TotalBalance(accounts []core.Account) float64 {
	var total float64
	for _, a := range accounts {
		total += a.Balance
	}
	return total
}

// MonthlySeries buckets transactions by the calendar month of their date,
// normalized to ILS. Buckets appear in order of first occurrence in the
// log, not chronological order, and months with no activity produce no
// bucket. Only the last 6 buckets of that sequence are returned.
func MonthlySeries(transactions []core.Transaction) []MonthBucket {
	index := make(map[string]int)
	var buckets []MonthBucket

	for _, tx := range transactions {
		key := monthKey(tx)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{Name: key})
		}
		if tx.Type == core.Deposit {
			buckets[i].Deposits += tx.BaseAmount()
		} else {
			buckets[i].Withdrawals += tx.BaseAmount()
		}
	}

	if len(buckets) > monthlyWindow {
		buckets = buckets[len(buckets)-monthlyWindow:]
	}
	return buckets
}

// RecentActivity returns the n latest transactions by date, newest first.
// The sort is stable, so transactions sharing a date keep their relative
// order in the log.
func RecentActivity(transactions []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(transactions))
	copy(out, transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Compute builds the full dashboard view.
func Compute(accounts []core.Account, transactions []core.Transaction) Dashboard {
	return Dashboard{
		TotalAccounts:      len(accounts),
		TotalBalance:       TotalBalance(accounts),
		MonthlyActivity:    MonthlySeries(transactions),
		RecentTransactions: RecentActivity(transactions, recentWindow),
	}
}

func monthKey(tx core.Transaction) string {
	return strconv.Itoa(int(tx.Date.Month())) + "/" + strconv.Itoa(tx.Date.Year())
}
