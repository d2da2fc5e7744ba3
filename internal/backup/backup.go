// Package backup serializes the full ledger state for download and
// restores it from uploaded payloads.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"rasid/internal/core"
)

// State is the backup file layout: the snapshot plus the time it was
// taken.
type State struct {
	Accounts     []core.Account     `json:"accounts"`
	Transactions []core.Transaction `json:"transactions"`
	LastBackup   time.Time          `json:"lastBackup"`
}

// ExportJSON renders the snapshot as an indented backup document. Nil
// slices are written as empty arrays so an exported file always parses
// back in.
func ExportJSON(snap core.Snapshot) ([]byte, error) {
	state := State{
		Accounts:     snap.Accounts,
		Transactions: snap.Transactions,
		LastBackup:   time.Now(),
	}
	if state.Accounts == nil {
		state.Accounts = []core.Account{}
	}
	if state.Transactions == nil {
		state.Transactions = []core.Transaction{}
	}
	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return out, nil
}

// FileName is the suggested download name for a backup taken now.
func FileName(now time.Time) string {
	return "backup_balance_" + now.Format("2006-01-02") + ".json"
}

// Parse reads a backup payload back into a snapshot. Both the accounts
// and transactions fields must be present and non-null; a payload
// lacking either is rejected with ErrInvalidFormat and nothing is
// returned.
func Parse(raw []byte) (core.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	accountsRaw, ok := fields["accounts"]
	if !ok || isNull(accountsRaw) {
		return core.Snapshot{}, fmt.Errorf("%w: missing accounts", core.ErrInvalidFormat)
	}
	transactionsRaw, ok := fields["transactions"]
	if !ok || isNull(transactionsRaw) {
		return core.Snapshot{}, fmt.Errorf("%w: missing transactions", core.ErrInvalidFormat)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(accountsRaw, &snap.Accounts); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: accounts: %v", core.ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(transactionsRaw, &snap.Transactions); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: transactions: %v", core.ErrInvalidFormat, err)
	}
	return snap, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
