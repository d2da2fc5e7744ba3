package http

import (
	"fmt"
	"net/http"
	"time"

	"rasid/internal/core"
	"rasid/internal/ledger"
)

type transactionRequest struct {
	AccountID    string  `json:"accountId"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ExchangeRate float64 `json:"exchangeRate,omitzero"`
	Date         string  `json:"date"`
	Notes        string  `json:"notes"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledger.Transactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.ledger.RecordTransaction(r.Context(), ledger.TransactionInput{
		AccountID:    req.AccountID,
		Type:         core.TransactionType(req.Type),
		Amount:       req.Amount,
		Currency:     core.Currency(req.Currency),
		ExchangeRate: req.ExchangeRate,
		Date:         date,
		Notes:        sanitizeInput(req.Notes),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// parseDate accepts RFC 3339 timestamps and bare dates; an empty string
// passes through as the zero time so the engine reports the missing
// date itself.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", core.ErrInvalidFormat, value)
}
