// Package sheets mirrors the ledger into a Google spreadsheet: one tab
// for accounts, one for transactions. Each push rewrites both tabs with
// the full snapshot, the same self-healing contract as the webhook sink.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rasid/internal/core"
	"rasid/internal/mirror"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Config struct {
	SpreadsheetID     string
	AccountsSheet     string
	TransactionsSheet string
	// Service account credentials: inline JSON wins over a file path;
	// with neither set, Application Default Credentials apply.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	accountsSheet     string
	transactionsSheet string
}

var _ mirror.Sink = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	accountsSheet := cfg.AccountsSheet
	if accountsSheet == "" {
		accountsSheet = "Accounts"
	}
	transactionsSheet := cfg.TransactionsSheet
	if transactionsSheet == "" {
		transactionsSheet = "Transactions"
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		accountsSheet:     accountsSheet,
		transactionsSheet: transactionsSheet,
	}, nil
}

func (c *Client) Name() string { return "sheets" }

func (c *Client) Push(ctx context.Context, snap core.Snapshot) error {
	if err := c.rewriteSheet(ctx, c.accountsSheet, accountRows(snap.Accounts)); err != nil {
		return fmt.Errorf("accounts sheet: %w", err)
	}
	if err := c.rewriteSheet(ctx, c.transactionsSheet, transactionRows(snap.Transactions)); err != nil {
		return fmt.Errorf("transactions sheet: %w", err)
	}
	slog.DebugContext(ctx, "Snapshot mirrored to spreadsheet",
		"spreadsheet_id", c.spreadsheetID,
		"accounts", len(snap.Accounts), "transactions", len(snap.Transactions))
	return nil
}

func (c *Client) rewriteSheet(ctx context.Context, sheet string, rows [][]interface{}) error {
	rng := fmt.Sprintf("'%s'!A:Z", sheet)
	_, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", sheet), &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", sheet, err)
	}
	return nil
}

func accountRows(accounts []core.Account) [][]interface{} {
	rows := [][]interface{}{{"Account ID", "Name", "Phone", "Balance (ILS)", "Created", "Last Transaction"}}
	for _, a := range accounts {
		rows = append(rows, []interface{}{
			a.ID, a.Name, a.PhoneNumber, a.Balance,
			formatDate(a.CreatedAt), formatDate(a.LastTransactionDate),
		})
	}
	return rows
}

func transactionRows(transactions []core.Transaction) [][]interface{} {
	rows := [][]interface{}{{"Transaction ID", "Account ID", "Type", "Amount", "Currency", "Exchange Rate", "Date", "Notes"}}
	for _, t := range transactions {
		rate := ""
		if t.ExchangeRate > 0 {
			rate = strconv.FormatFloat(t.ExchangeRate, 'f', -1, 64)
		}
		rows = append(rows, []interface{}{
			t.ID, t.AccountID, string(t.Type), t.Amount, string(t.Currency),
			rate, formatDate(t.Date), t.Notes,
		})
	}
	return rows
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
