package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// LedgerService appends expenses and savings to the ledger and queues each
// entry for backup sync.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AddExpense validates and records an expense for an onboarded user.
func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Category = core.NormalizeNote(e.Category)
	e.Note = core.NormalizeNote(e.Note)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.requireOnboarded(ctx, e.UserID); err != nil {
		return core.Expense{}, err
	}

	id, err := s.storage.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	// Publish async; the entry is already durable locally.
	s.publishSync(ctx, amqp.KindExpense, id)

	return e, nil
}

// AddSaving validates and records a saving contribution for an onboarded user.
func (s *LedgerService) AddSaving(ctx context.Context, sv core.Saving) (core.Saving, error) {
	sv.Note = core.NormalizeNote(sv.Note)
	if err := sv.Validate(); err != nil {
		return core.Saving{}, err
	}

	if err := s.requireOnboarded(ctx, sv.UserID); err != nil {
		return core.Saving{}, err
	}

	id, err := s.storage.InsertSaving(ctx, sv)
	if err != nil {
		return core.Saving{}, fmt.Errorf("save saving: %w", err)
	}
	sv.ID = id

	s.publishSync(ctx, amqp.KindSaving, id)

	return sv, nil
}

// ListExpenses returns the user's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, userID, since, limit)
}

// ListSavings returns the user's savings, newest first.
func (s *LedgerService) ListSavings(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Saving, error) {
	return s.storage.ListSavings(ctx, userID, since, limit)
}

func (s *LedgerService) requireOnboarded(ctx context.Context, userID int64) error {
	_, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.ErrNotOnboarded
	}
	if err != nil {
		return fmt.Errorf("check profile: %w", err)
	}
	return nil
}

func (s *LedgerService) publishSync(ctx context.Context, kind string, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishEntrySync(ctx, kind, id); err != nil {
		// The worker's backlog sweep will pick the entry up later.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"kind", kind, "id", id, "error", err)
	}
}
