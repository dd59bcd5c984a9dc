package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// SnapshotService computes the financial snapshot for a user. Every call
// recomputes from the ledger; results are never cached.
type SnapshotService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewSnapshotService(storage *storage.SQLiteRepository) *SnapshotService {
	return &SnapshotService{
		storage: storage,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use this to pin the month.
func (s *SnapshotService) WithClock(now func() time.Time) *SnapshotService {
	s.now = now
	return s
}

// GetSnapshot aggregates the user's ledger into the current-month snapshot.
func (s *SnapshotService) GetSnapshot(ctx context.Context, userID int64) (core.Snapshot, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Snapshot{}, core.ErrNotOnboarded
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("get profile: %w", err)
	}

	today := core.DateOf(s.now())
	monthStart := today.MonthStart()

	spent, err := s.storage.SumExpensesSince(ctx, userID, monthStart)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sum expenses: %w", err)
	}

	allSavings, err := s.storage.SumSavings(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sum savings: %w", err)
	}

	savingsThisMonth, err := s.storage.SumSavingsSince(ctx, userID, monthStart)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("sum savings this month: %w", err)
	}

	recentExpenses, err := s.storage.ListExpenses(ctx, userID, core.Date{}, core.RecentEntryLimit)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list recent expenses: %w", err)
	}

	recentSavings, err := s.storage.ListSavings(ctx, userID, core.Date{}, core.RecentEntryLimit)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list recent savings: %w", err)
	}

	return core.BuildSnapshot(profile, today, spent, allSavings, savingsThisMonth, recentExpenses, recentSavings), nil
}
