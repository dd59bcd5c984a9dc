package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
)

type profileRequest struct {
	MonthlyIncome  core.Money `json:"monthly_income"`
	SavingsGoal    core.Money `json:"savings_goal"`
	CurrentSavings core.Money `json:"current_savings"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	profile, err := s.profiles.GetProfile(r.Context(), userID)
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
		"profile":   profile,
	})
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	profile, err := s.profiles.SetProfile(r.Context(), userID,
		req.MonthlyIncome, req.SavingsGoal, req.CurrentSavings)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"onboarded": true,
		"profile":   profile,
	})
}
