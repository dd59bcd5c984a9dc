package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
)

// handleSnapshot returns the user's financial snapshot, recomputed from the
// ledger on every request.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	snapshot, err := s.snapshots.GetSnapshot(r.Context(), userID)
	if errors.Is(err, core.ErrNotOnboarded) {
		writeJSON(w, http.StatusOK, map[string]any{"onboarded": false})
		return
	}
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"onboarded": true,
		"snapshot":  snapshot,
	})
}
