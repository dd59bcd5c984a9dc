package memory

import (
	"context"
	"sync"

	"fintrack/internal/sheets"
)

// Store is an in-memory EntryWriter used in tests and when no spreadsheet
// backup is configured.
type Store struct {
	mu   sync.Mutex
	rows []sheets.LedgerRow
}

func New() *Store {
	return &Store{}
}

var _ sheets.EntryWriter = (*Store)(nil)

// Append stores the row.
func (s *Store) Append(_ context.Context, row sheets.LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.LedgerRow(nil), s.rows...)
}
