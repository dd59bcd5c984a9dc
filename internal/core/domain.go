package core

import (
	"errors"
	"strings"
	"time"
)

// ValidationError marks a user-correctable input problem. Handlers surface
// its message verbatim; anything else is treated as an infrastructure failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalid builds a ValidationError with the given message.
func Invalid(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidAmount = Invalid("amount must be greater than zero")
	ErrInvalidDate   = Invalid("invalid date, expected YYYY-MM-DD")
	ErrEmptyCategory = Invalid("category is required")

	// ErrNotOnboarded signals that the user has no profile yet. It is an
	// expected state, not a failure: callers branch to the onboarding flow.
	ErrNotOnboarded = errors.New("profile not set up")
)

type (
	// User is the identity anchor. It owns at most one Profile and any
	// number of Expenses and Savings; all of them are deleted with it.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Profile holds the financial goals set during onboarding, one per user.
	// CurrentSavings is a snapshot entered by the user; it is never
	// reconciled against the savings ledger.
	Profile struct {
		UserID         int64     `json:"-"`
		MonthlyIncome  Money     `json:"monthly_income"`
		SavingsGoal    Money     `json:"savings_goal"`
		CurrentSavings Money     `json:"current_savings"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	// Expense is an append-only ledger entry. Note is empty when absent.
	Expense struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"-"`
		Date     Date   `json:"date"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Note     string `json:"note,omitempty"`
	}

	// Saving is the income-side ledger entry, identical to Expense minus
	// the category.
	Saving struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"-"`
		Date   Date   `json:"date"`
		Amount Money  `json:"amount"`
		Note   string `json:"note,omitempty"`
	}
)

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 50 {
		return Invalid("category too long (max 50 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Note) > 255 {
		return Invalid("note too long (max 255 characters)")
	}
	return nil
}

func (s Saving) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if len(s.Note) > 255 {
		return Invalid("note too long (max 255 characters)")
	}
	return nil
}

// NormalizeNote trims the note and collapses "no note" to the empty string.
func NormalizeNote(note string) string {
	return strings.TrimSpace(note)
}

// ValidateProfileInput checks the onboarding values. CurrentSavings may be
// zero; it only needs to be non-negative.
func ValidateProfileInput(income, goal, current Money) error {
	if income.Cents <= 0 {
		return Invalid("monthly income must be greater than zero")
	}
	if goal.Cents <= 0 {
		return Invalid("savings goal must be greater than zero")
	}
	if current.Cents < 0 {
		return Invalid("current savings cannot be negative")
	}
	return nil
}
