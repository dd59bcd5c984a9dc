package core

import (
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:     NewDate(2025, 1, 1),
		Category: "food",
		Amount:   Money{Cents: 100},
		Note:     "lunch",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{}, Category: "food", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Category: "", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Category: "   ", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Category: "food", Amount: Money{Cents: 0}},
		{Date: NewDate(2025, 1, 1), Category: "food", Amount: Money{Cents: -50}},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %T", i, err)
		}
	}
}

func TestSavingValidate(t *testing.T) {
	good := Saving{Date: NewDate(2025, 3, 15), Amount: Money{Cents: 5000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Saving{Date: NewDate(2025, 3, 15), Amount: Money{Cents: 0}}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (Saving{Amount: Money{Cents: 100}}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestValidateProfileInput(t *testing.T) {
	cases := []struct {
		income, goal, current int64
		ok                    bool
	}{
		{200000, 100000, 0, true},
		{200000, 100000, 50000, true},
		{0, 100000, 0, false},
		{-100, 100000, 0, false},
		{200000, 0, 0, false},
		{200000, 100000, -1, false},
	}
	for i, tc := range cases {
		err := ValidateProfileInput(Money{Cents: tc.income}, Money{Cents: tc.goal}, Money{Cents: tc.current})
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeNote(t *testing.T) {
	if got := NormalizeNote("  groceries  "); got != "groceries" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeNote("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
