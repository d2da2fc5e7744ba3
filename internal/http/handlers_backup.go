package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"rasid/internal/backup"
	"rasid/internal/core"
)

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := backup.ExportJSON(snap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", backup.FileName(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: read body: %v", core.ErrInvalidFormat, err))
		return
	}

	snap, err := s.ledger.ImportSnapshot(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExportAccountsCSV(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.Accounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := backup.AccountsCSV(accounts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, "accounts.csv", payload)
}

func (s *Server) handleExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledger.Transactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := backup.TransactionsCSV(transactions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, "transactions.csv", payload)
}

func writeCSV(w http.ResponseWriter, filename string, payload []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
