// Package export renders ledger data into the outbound formats: the month
// JSON payload, CSV, and the full backup document restore accepts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"khata/internal/core"
)

const (
	TypeMonthData  = "month_data"
	TypeFullBackup = "full_backup"
)

// SummaryPayload carries the period totals in rupee form for consumers that
// do not speak paise.
type SummaryPayload struct {
	Income float64 `json:"income"`
	Spent  float64 `json:"spent"`
}

// MonthPayload is the exported view of one period.
type MonthPayload struct {
	ExportType  string              `json:"exportType"`
	MonthLabel  string              `json:"monthLabel"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Summary     SummaryPayload      `json:"summary"`
	Incomes     []core.IncomeEntry  `json:"incomes"`
	Expenses    []core.ExpenseEntry `json:"expenses"`
}

// BackupPayload wraps the full state for download; Restore accepts this form
// directly.
type BackupPayload struct {
	ExportType  string     `json:"exportType"`
	GeneratedAt time.Time  `json:"generatedAt"`
	State       core.State `json:"state"`
}

// Month builds the export payload for one period.
func Month(m core.MonthLedger, label string, now time.Time) MonthPayload {
	sum := core.Summarize(m)
	return MonthPayload{
		ExportType:  TypeMonthData,
		MonthLabel:  label,
		GeneratedAt: now,
		Summary: SummaryPayload{
			Income: sum.Income.Rupees(),
			Spent:  sum.Spent.Rupees(),
		},
		Incomes:  m.Incomes,
		Expenses: m.Expenses,
	}
}

// Backup builds the full-state backup payload.
func Backup(s core.State, now time.Time) BackupPayload {
	return BackupPayload{
		ExportType:  TypeFullBackup,
		GeneratedAt: now,
		State:       s,
	}
}

// MarshalIndent renders a payload the way the download endpoints serve it.
func MarshalIndent(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export payload: %w", err)
	}
	return b, nil
}

// WriteCSV writes one period as CSV: income rows first, then expenses.
// accountName resolves account IDs for the last column and may be nil.
func WriteCSV(w io.Writer, m core.MonthLedger, accountName func(id string) string) error {
	if accountName == nil {
		accountName = func(string) string { return "" }
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Type", "Description", "Category", "Amount", "Account"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, in := range m.Incomes {
		row := []string{
			csvDate(in.Date),
			"income",
			in.Description,
			"",
			formatRupees(in.Amount),
			"",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	for _, e := range m.Expenses {
		row := []string{
			csvDate(e.Date),
			"expense",
			e.Description,
			e.Category,
			formatRupees(e.Amount),
			accountName(e.AccountID),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatRupees(m core.Money) string {
	return strconv.FormatFloat(m.Rupees(), 'f', 2, 64)
}
