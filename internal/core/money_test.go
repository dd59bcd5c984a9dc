package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{".5", 50, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"-5", 0, false},
		{"+5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
		if tc.ok && got != tc.cents {
			t.Fatalf("%q: expected %d cents, got %d", tc.in, tc.cents, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	out, err := json.Marshal(Money{Cents: 1234})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "12.34" {
		t.Fatalf("expected 12.34, got %s", out)
	}

	var m Money
	if err := json.Unmarshal([]byte("99.99"), &m); err != nil {
		t.Fatal(err)
	}
	if m.Cents != 9999 {
		t.Fatalf("expected 9999 cents, got %d", m.Cents)
	}

	// Quoted decimals are accepted too.
	if err := json.Unmarshal([]byte(`"42.50"`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Cents != 4250 {
		t.Fatalf("expected 4250 cents, got %d", m.Cents)
	}

	if err := json.Unmarshal([]byte(`-3`), &m); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{100, "1.00"},
		{5, "0.05"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d cents: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}
