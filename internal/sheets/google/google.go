package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/config"
	"fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends ledger rows to a Google Sheets spreadsheet using a service
// account.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.EntryWriter = (*Client)(nil)

// NewFromConfig creates a Sheets client from the backup configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

func loadCredentials(cfg *config.Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.GoogleCredentialsJSON) != "":
		return []byte(cfg.GoogleCredentialsJSON), nil
	case strings.TrimSpace(cfg.GoogleCredentialsFile) != "":
		credentialsJSON, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return credentialsJSON, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

// Append writes one ledger row at the bottom of the backup sheet.
func (c *Client) Append(ctx context.Context, row sheets.LedgerRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Kind, row.ID, row.UserID, row.Date, row.Category, row.Amount, row.Note,
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	return nil
}
