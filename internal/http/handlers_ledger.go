package http

import (
	"net/http"

	"fintrack/internal/core"
)

type expenseRequest struct {
	Date     core.Date  `json:"date"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Note     string     `json:"note"`
}

type savingRequest struct {
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"`
	Note   string     `json:"note"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	expense, err := s.ledger.AddExpense(r.Context(), core.Expense{
		UserID:   userID,
		Date:     req.Date,
		Category: req.Category,
		Amount:   req.Amount,
		Note:     req.Note,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
}

func (s *Server) handleAddSaving(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req savingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	saving, err := s.ledger.AddSaving(r.Context(), core.Saving{
		UserID: userID,
		Date:   req.Date,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"saving": saving})
}
