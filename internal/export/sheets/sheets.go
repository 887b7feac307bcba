// Package sheets pushes archived month data to a Google Sheets spreadsheet,
// one row per transaction, so the ledger can be eyeballed outside the app.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"khata/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Khata")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Khata"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendMonth appends one archived month: a label row, then one row per
// transaction. Rows land after the current contents of the sheet.
func (c *Client) AppendMonth(ctx context.Context, m core.MonthLedger, label string, accountName func(id string) string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := MonthRows(m, label, accountName)
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Month appended to Google Sheets",
		"label", label,
		"rows", len(rows),
		"sheet", c.sheetName)
	return nil
}

// MonthRows renders the sheet rows for one month. Split out so it can be
// tested without a live spreadsheet.
func MonthRows(m core.MonthLedger, label string, accountName func(id string) string) [][]any {
	if accountName == nil {
		accountName = func(string) string { return "" }
	}
	sum := core.Summarize(m)
	rows := [][]any{
		{label, "", "", "", sum.Income.Rupees(), sum.Spent.Rupees()},
	}
	for _, in := range m.Incomes {
		rows = append(rows, []any{
			sheetDate(in), "income", in.Description, "", in.Amount.Rupees(), "",
		})
	}
	for _, e := range m.Expenses {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format("2006-01-02")
		}
		rows = append(rows, []any{
			date, "expense", e.Description, e.Category, e.Amount.Rupees(), accountName(e.AccountID),
		})
	}
	return rows
}

func sheetDate(in core.IncomeEntry) string {
	if in.Date.IsZero() {
		return ""
	}
	return in.Date.Format("2006-01-02")
}
