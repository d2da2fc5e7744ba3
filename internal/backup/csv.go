package backup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"rasid/internal/core"
)

// utf8BOM prefixes both CSV artifacts so spreadsheet tools render
// non-Latin account names correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var accountsHeader = []string{"Account ID", "Name", "Phone", "Balance (ILS)", "Last Transaction"}

var transactionsHeader = []string{"Transaction ID", "Account ID", "Type", "Amount", "Currency", "Exchange Rate", "Date", "Notes"}

// AccountsCSV renders one row per account under a fixed column header.
func AccountsCSV(accounts []core.Account) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(accountsHeader); err != nil {
		return nil, fmt.Errorf("write accounts header: %w", err)
	}
	for _, a := range accounts {
		lastTx := ""
		if !a.LastTransactionDate.IsZero() {
			lastTx = a.LastTransactionDate.Format(time.RFC3339)
		}
		row := []string{a.ID, a.Name, a.PhoneNumber, formatAmount(a.Balance), lastTx}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write account %s: %w", a.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush accounts csv: %w", err)
	}
	return buf.Bytes(), nil
}

// TransactionsCSV renders one row per transaction. A transaction without
// an exchange rate exports as rate 1, keeping the amount column directly
// multipliable in spreadsheets.
func TransactionsCSV(transactions []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(transactionsHeader); err != nil {
		return nil, fmt.Errorf("write transactions header: %w", err)
	}
	for _, tx := range transactions {
		rate := tx.ExchangeRate
		if rate == 0 {
			rate = 1
		}
		row := []string{
			tx.ID,
			tx.AccountID,
			string(tx.Type),
			formatAmount(tx.Amount),
			string(tx.Currency),
			formatAmount(rate),
			tx.Date.Format(time.RFC3339),
			tx.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush transactions csv: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount keeps the shortest exact decimal representation, the same
// way the amounts appear in JSON.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
