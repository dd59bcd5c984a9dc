package storage

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Repository is the persistence surface the services and worker build on.
// SQLiteRepository is the only implementation; the interface documents the
// contract and keeps test doubles possible.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, username, email, passwordHash string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	CleanExpiredSessions(ctx context.Context) error

	GetProfile(ctx context.Context, userID int64) (core.Profile, error)
	UpsertProfile(ctx context.Context, userID int64, income, goal, current core.Money) (core.Profile, error)

	InsertExpense(ctx context.Context, e core.Expense) (int64, error)
	InsertSaving(ctx context.Context, s core.Saving) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetSaving(ctx context.Context, id int64) (core.Saving, error)
	ListExpenses(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Expense, error)
	ListSavings(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Saving, error)
	SumExpensesSince(ctx context.Context, userID int64, since core.Date) (core.Money, error)
	SumSavings(ctx context.Context, userID int64) (core.Money, error)
	SumSavingsSince(ctx context.Context, userID int64, since core.Date) (core.Money, error)

	GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error)
	MarkSynced(ctx context.Context, kind string, id int64) error
	MarkSyncError(ctx context.Context, kind string, id int64) error
}

var _ Repository = (*SQLiteRepository)(nil)
