// Package storage is the durable persistence gateway, backed by SQLite.
// Accounts and transactions are written as full-replace sets inside one
// transaction each; an explicit position column preserves recording
// order, which the ledger fold and the monthly buckets both depend on.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rasid/internal/core"
	"rasid/internal/seed"

	_ "modernc.org/sqlite"
)

const (
	settingSyncEndpoint       = "sync_endpoint"
	settingAccountsSeeded     = "accounts_seeded"
	settingTransactionsSeeded = "transactions_seeded"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) LoadAccounts(ctx context.Context) ([]core.Account, error) {
	if err := r.seedAccountsIfNeeded(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, phone_number, balance, created_at, last_transaction_date
		 FROM accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var createdAt, lastTx string
		if err := rows.Scan(&a.ID, &a.Name, &a.PhoneNumber, &a.Balance, &createdAt, &lastTx); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("account %s created_at: %w", a.ID, err)
		}
		if a.LastTransactionDate, err = parseTime(lastTx); err != nil {
			return nil, fmt.Errorf("account %s last_transaction_date: %w", a.ID, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *SQLiteRepository) SaveAccounts(ctx context.Context, accounts []core.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save accounts: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}
	for i, a := range accounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, name, phone_number, balance, created_at, last_transaction_date, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.PhoneNumber, a.Balance, formatTime(a.CreatedAt), formatTime(a.LastTransactionDate), i)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}
	if err := setSettingTx(ctx, tx, settingAccountsSeeded, "1"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save accounts: %w", err)
	}

	slog.DebugContext(ctx, "Accounts saved", "count", len(accounts))
	return nil
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := r.seedTransactionsIfNeeded(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, amount, currency, exchange_rate, type, date, notes
		 FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var currency, typ, date string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &currency, &t.ExchangeRate, &typ, &date, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Currency = core.Currency(currency)
		t.Type = core.TransactionType(typ)
		if t.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("transaction %s date: %w", t.ID, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, transactions []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transactions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for i, t := range transactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, account_id, amount, currency, exchange_rate, type, date, notes, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.AccountID, t.Amount, string(t.Currency), t.ExchangeRate, string(t.Type), formatTime(t.Date), t.Notes, i)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	if err := setSettingTx(ctx, tx, settingTransactionsSeeded, "1"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transactions: %w", err)
	}

	slog.DebugContext(ctx, "Transactions saved", "count", len(transactions))
	return nil
}

func (r *SQLiteRepository) LoadSyncEndpoint(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingSyncEndpoint).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query sync endpoint: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) SaveSyncEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingSyncEndpoint, endpoint)
	if err != nil {
		return fmt.Errorf("save sync endpoint: %w", err)
	}
	return nil
}

// seedAccountsIfNeeded installs the demo account set exactly once, on the
// first load before any save. A deliberately saved empty set does not
// re-seed: the marker settings row distinguishes "never stored" from
// "stored empty".
func (r *SQLiteRepository) seedAccountsIfNeeded(ctx context.Context) error {
	seeded, err := r.getSetting(ctx, settingAccountsSeeded)
	if err != nil || seeded != "" {
		return err
	}
	if err := r.SaveAccounts(ctx, seed.Accounts(time.Now())); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	slog.InfoContext(ctx, "Seeded default accounts")
	return nil
}

func (r *SQLiteRepository) seedTransactionsIfNeeded(ctx context.Context) error {
	seeded, err := r.getSetting(ctx, settingTransactionsSeeded)
	if err != nil || seeded != "" {
		return err
	}
	if err := r.SaveTransactions(ctx, seed.Transactions(time.Now())); err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}
	slog.InfoContext(ctx, "Seeded default transactions")
	return nil
}

func (r *SQLiteRepository) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

func setSettingTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Times persist as RFC3339Nano text; the empty string stands for the zero
// time (no last transaction yet).
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
