package sheets

import (
	"testing"
	"time"

	"khata/internal/core"
)

func TestMonthRows(t *testing.T) {
	date := time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC)
	m := core.MonthLedger{
		MonthlyIncome: core.Money{Paise: 500000},
		Incomes: []core.IncomeEntry{
			{Description: "Salary", Amount: core.Money{Paise: 500000}, Date: date},
		},
		Expenses: []core.ExpenseEntry{
			{Description: "Groceries", Category: "Food", Amount: core.Money{Paise: 25000}, Date: date, AccountID: "acct_1"},
		},
	}
	names := map[string]string{"acct_1": "Checking"}

	rows := MonthRows(m, "August 2025", func(id string) string { return names[id] })
	if len(rows) != 3 {
		t.Fatalf("expected label row + 2 transaction rows, got %d", len(rows))
	}
	if rows[0][0] != "August 2025" || rows[0][4] != 5000.0 || rows[0][5] != 250.0 {
		t.Fatalf("unexpected label row: %v", rows[0])
	}
	if rows[1][1] != "income" || rows[1][2] != "Salary" {
		t.Fatalf("unexpected income row: %v", rows[1])
	}
	if rows[2][3] != "Food" || rows[2][5] != "Checking" {
		t.Fatalf("unexpected expense row: %v", rows[2])
	}
}

func TestMonthRowsZeroDates(t *testing.T) {
	m := core.MonthLedger{
		Expenses: []core.ExpenseEntry{
			{Description: "Misc", Category: "Other", Amount: core.Money{Paise: 100}},
		},
	}
	rows := MonthRows(m, "August 2025", nil)
	if rows[1][0] != "" {
		t.Fatalf("zero date must render empty, got %v", rows[1][0])
	}
}
