package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.dashboardCache.Get(dashboardCacheKey); ok {
		slog.DebugContext(r.Context(), "Dashboard served from cache")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	dashboard, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.dashboardCache.Set(dashboardCacheKey, dashboard)
	writeJSON(w, http.StatusOK, dashboard)
}
