package http

import (
	"net/http"
)

type syncURLPayload struct {
	SyncURL string `json:"syncUrl"`
}

func (s *Server) handleGetSyncURL(w http.ResponseWriter, r *http.Request) {
	endpoint, err := s.ledger.SyncEndpoint(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncURLPayload{SyncURL: endpoint})
}

func (s *Server) handleSetSyncURL(w http.ResponseWriter, r *http.Request) {
	var req syncURLPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.SetSyncEndpoint(r.Context(), sanitizeInput(req.SyncURL)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncURLPayload{SyncURL: req.SyncURL})
}
