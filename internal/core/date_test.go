package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || int(d.Month()) != 6 || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}

	bads := []string{
		"2024-02-30", // impossible calendar date
		"2024-13-01",
		"2024-00-10",
		"15/06/2025",
		"2025-6-1",
		"",
		"yesterday",
	}
	for _, s := range bads {
		if _, err := ParseDate(s); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", s, err)
		}
	}
}

func TestMonthStart(t *testing.T) {
	d := NewDate(2025, 8, 30)
	start := d.MonthStart()
	if start.String() != "2025-08-01" {
		t.Fatalf("expected 2025-08-01, got %s", start)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 1, 2)
	out, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2025-01-02"` {
		t.Fatalf("got %s", out)
	}

	var parsed Date
	if err := parsed.UnmarshalJSON([]byte(`"2025-01-02"`)); err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v vs %v", parsed, d)
	}
}
