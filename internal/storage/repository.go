package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// SessionInfo holds session validation data.
type SessionInfo struct {
	Token        string
	UserID       int64
	ExpiresAt    time.Time
	LastActivity time.Time
}

// PendingSyncEntry identifies a ledger entry waiting for backup sync.
type PendingSyncEntry struct {
	Kind string // "expense" or "saving"
	ID   int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// An in-memory database exists per connection, so the pool must not
	// grow past one.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping verifies the database connection is alive.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		username, email, passwordHash, now)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)

	return core.User{ID: id, Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?", username))
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?", email))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the user and every row that references it in one
// transaction.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM sessions WHERE user_id = ?",
		"DELETE FROM expenses WHERE user_id = ?",
		"DELETE FROM savings WHERE user_id = ?",
		"DELETE FROM profiles WHERE user_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}

	slog.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}

// --- sessions ---

func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns the session for token if it has not expired.
func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (SessionInfo, error) {
	var s SessionInfo
	err := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, last_activity FROM sessions WHERE token = ? AND expires_at > ?",
		token, time.Now().UTC()).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, ErrNotFound
	}
	if err != nil {
		return SessionInfo{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// RenewSession pushes the expiry forward and records activity.
func (r *SQLiteRepository) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UTC(), newExpiresAt.UTC(), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CleanExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC()); err != nil {
		return fmt.Errorf("clean expired sessions: %w", err)
	}
	return nil
}

// --- profiles ---

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID int64) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, monthly_income_cents, savings_goal_cents, current_savings_cents, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.MonthlyIncome.Cents, &p.SavingsGoal.Cents, &p.CurrentSavings.Cents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile inserts the profile on first write and replaces every field
// but created_at on subsequent writes.
func (r *SQLiteRepository) UpsertProfile(ctx context.Context, userID int64, income, goal, current core.Money) (core.Profile, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, monthly_income_cents, savings_goal_cents, current_savings_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			monthly_income_cents = excluded.monthly_income_cents,
			savings_goal_cents = excluded.savings_goal_cents,
			current_savings_cents = excluded.current_savings_cents,
			updated_at = excluded.updated_at`,
		userID, income.Cents, goal.Cents, current.Cents, now, now)
	if err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile saved", "user_id", userID, "monthly_income_cents", income.Cents)

	return r.GetProfile(ctx, userID)
}

// --- ledger ---

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, entry_date, category, amount_cents, note) VALUES (?, ?, ?, ?, ?)",
		e.UserID, e.Date.String(), e.Category, e.Amount.Cents, e.Note)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id, "user_id", e.UserID, "category", e.Category, "amount_cents", e.Amount.Cents)

	return id, nil
}

func (r *SQLiteRepository) InsertSaving(ctx context.Context, s core.Saving) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO savings (user_id, entry_date, amount_cents, note) VALUES (?, ?, ?, ?)",
		s.UserID, s.Date.String(), s.Amount.Cents, s.Note)
	if err != nil {
		return 0, fmt.Errorf("insert saving: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert saving id: %w", err)
	}

	slog.InfoContext(ctx, "Saving saved",
		"id", id, "user_id", s.UserID, "amount_cents", s.Amount.Cents)

	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	var date string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, entry_date, category, amount_cents, note FROM expenses WHERE id = ?", id).
		Scan(&e.ID, &e.UserID, &date, &e.Category, &e.Amount.Cents, &e.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetSaving(ctx context.Context, id int64) (core.Saving, error) {
	var s core.Saving
	var date string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, entry_date, amount_cents, note FROM savings WHERE id = ?", id).
		Scan(&s.ID, &s.UserID, &date, &s.Amount.Cents, &s.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Saving{}, ErrNotFound
	}
	if err != nil {
		return core.Saving{}, fmt.Errorf("get saving: %w", err)
	}
	if s.Date, err = core.ParseDate(date); err != nil {
		return core.Saving{}, fmt.Errorf("parse saving date %q: %w", date, err)
	}
	return s, nil
}

// ListExpenses returns the user's expenses, newest date first with the id as
// tie-break. A zero since means no lower bound; limit <= 0 means no limit.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Expense, error) {
	query := "SELECT id, user_id, entry_date, category, amount_cents, note FROM expenses WHERE user_id = ?"
	args := []any{userID}
	if !since.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, since.String())
	}
	query += " ORDER BY entry_date DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		var date string
		if err := rows.Scan(&e.ID, &e.UserID, &date, &e.Category, &e.Amount.Cents, &e.Note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses rows: %w", err)
	}
	return expenses, nil
}

// ListSavings mirrors ListExpenses for the savings ledger.
func (r *SQLiteRepository) ListSavings(ctx context.Context, userID int64, since core.Date, limit int) ([]core.Saving, error) {
	query := "SELECT id, user_id, entry_date, amount_cents, note FROM savings WHERE user_id = ?"
	args := []any{userID}
	if !since.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, since.String())
	}
	query += " ORDER BY entry_date DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	savings := []core.Saving{}
	for rows.Next() {
		var s core.Saving
		var date string
		if err := rows.Scan(&s.ID, &s.UserID, &date, &s.Amount.Cents, &s.Note); err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		if s.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse saving date %q: %w", date, err)
		}
		savings = append(savings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list savings rows: %w", err)
	}
	return savings, nil
}

func (r *SQLiteRepository) SumExpensesSince(ctx context.Context, userID int64, since core.Date) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ? AND entry_date >= ?",
		userID, since.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) SumSavings(ctx context.Context, userID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM savings WHERE user_id = ?",
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum savings: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) SumSavingsSince(ctx context.Context, userID int64, since core.Date) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM savings WHERE user_id = ? AND entry_date >= ?",
		userID, since.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum savings since: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// --- backup sync bookkeeping ---

// GetPendingSyncEntries returns ledger entries still waiting for backup,
// oldest first, across both tables.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]PendingSyncEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, id FROM (
			SELECT 'expense' AS kind, id, created_at FROM expenses WHERE sync_status = 'pending'
			UNION ALL
			SELECT 'saving' AS kind, id, created_at FROM savings WHERE sync_status = 'pending'
		 ) ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var entries []PendingSyncEntry
	for rows.Next() {
		var e PendingSyncEntry
		if err := rows.Scan(&e.Kind, &e.ID); err != nil {
			return nil, fmt.Errorf("scan pending sync entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending sync rows: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, kind string, id int64) error {
	table, err := syncTable(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE "+table+" SET sync_status = 'synced' WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as synced", "kind", kind, "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, kind string, id int64) error {
	table, err := syncTable(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE "+table+" SET sync_status = 'error' WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with sync error", "kind", kind, "id", id)
	return nil
}

func syncTable(kind string) (string, error) {
	switch kind {
	case "expense":
		return "expenses", nil
	case "saving":
		return "savings", nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
}
