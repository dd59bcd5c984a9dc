package sheets

import "context"

// LedgerRow is one ledger entry flattened for a spreadsheet backup.
type LedgerRow struct {
	Kind     string // "expense" or "saving"
	ID       int64
	UserID   int64
	Date     string // YYYY-MM-DD
	Category string // empty for savings
	Amount   string // decimal string, e.g. "12.34"
	Note     string
}

// EntryWriter appends ledger rows to a backup destination.
type EntryWriter interface {
	Append(ctx context.Context, row LedgerRow) error
}
