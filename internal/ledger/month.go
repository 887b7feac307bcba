package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"khata/internal/core"
)

// PeriodSelectorCurrent addresses the mutable period in period selectors;
// archived periods are addressed by their history index.
const PeriodSelectorCurrent = "current"

// AddIncome records an income entry, raises the period's income total and
// credits the resolved account. A successful deposit also triggers an
// auto-pay pass, mirroring pay-day driven bill settlement; its outcomes are
// returned alongside.
func (l *Ledger) AddIncome(ctx context.Context, description string, amount core.Money) ([]AutoPayOutcome, error) {
	if amount.Paise <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if strings.TrimSpace(description) == "" {
		description = "Income"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.resolveAccountLocked("")
	if err != nil {
		return nil, err
	}
	if err := creditLocked(acct, amount); err != nil {
		return nil, err
	}
	l.state.CurrentMonth.MonthlyIncome = l.state.CurrentMonth.MonthlyIncome.Add(amount)
	l.state.CurrentMonth.Incomes = append(l.state.CurrentMonth.Incomes, core.IncomeEntry{
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Date:        l.now(),
	})

	outcomes := l.runAutoPayLocked(ctx)

	if err := l.persistLocked(ctx); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Income recorded",
		"amount_paise", amount.Paise,
		"account_id", acct.ID,
		"period", l.state.CurrentMonthKey.String())
	return outcomes, nil
}

// AddExpense records an expense against the resolved account, debiting it in
// the same step. Overdrafts are refused and leave both the balance and the
// period untouched.
func (l *Ledger) AddExpense(ctx context.Context, description, category string, amount core.Money) error {
	entry := core.ExpenseEntry{
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Amount:      amount,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.resolveAccountLocked("")
	if err != nil {
		return err
	}
	if err := debitLocked(acct, amount); err != nil {
		return err
	}
	entry.Date = l.now()
	entry.AccountID = acct.ID
	l.state.CurrentMonth.Expenses = append(l.state.CurrentMonth.Expenses, entry)

	if err := l.persistLocked(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense recorded",
		"description", entry.Description,
		"category", entry.Category,
		"amount_paise", amount.Paise,
		"account_id", acct.ID)
	return nil
}

// Rollover archives the current period under its display label, starts a
// fresh one and advances the period key by exactly one month. An empty
// period cannot be saved.
func (l *Ledger) Rollover(ctx context.Context) (label string, next core.Period, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := &l.state.CurrentMonth
	if cur.MonthlyIncome.IsZero() && len(cur.Expenses) == 0 {
		return "", core.Period{}, core.ErrNothingToSave
	}
	label = l.state.CurrentMonthKey.Label()
	l.state.History = append(l.state.History, core.ArchivedMonth{
		MonthLedger: *cur,
		Label:       label,
	})
	l.state.CurrentMonth = core.MonthLedger{}
	l.state.CurrentMonthKey = l.state.CurrentMonthKey.AddMonths(1)

	if err := l.persistLocked(ctx); err != nil {
		return "", core.Period{}, err
	}
	slog.InfoContext(ctx, "Month archived",
		"label", label,
		"next_period", l.state.CurrentMonthKey.String(),
		"history_len", len(l.state.History))
	return label, l.state.CurrentMonthKey, nil
}

// MonthData returns one period's ledger by selector: "current" or a history
// index ("0" is the oldest archived month).
func (l *Ledger) MonthData(selector string) (core.MonthLedger, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if selector == "" || selector == PeriodSelectorCurrent {
		snap := cloneState(l.state)
		return snap.CurrentMonth, l.state.CurrentMonthKey.Label(), nil
	}
	idx, err := strconv.Atoi(selector)
	if err != nil || idx < 0 || idx >= len(l.state.History) {
		return core.MonthLedger{}, "", core.ErrNotFound
	}
	snap := cloneState(l.state)
	return snap.History[idx].MonthLedger, snap.History[idx].Label, nil
}

// PeriodLabel names an archived or current period for display.
type PeriodLabel struct {
	Selector string `json:"selector"`
	Label    string `json:"label"`
}

// Periods lists all addressable periods, history first in chronological
// order, the current period last.
func (l *Ledger) Periods() []PeriodLabel {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PeriodLabel, 0, len(l.state.History)+1)
	for i, m := range l.state.History {
		out = append(out, PeriodLabel{Selector: strconv.Itoa(i), Label: m.Label})
	}
	out = append(out, PeriodLabel{Selector: PeriodSelectorCurrent, Label: l.state.CurrentMonthKey.Label()})
	return out
}

// AccountName resolves an account ID to its display name, empty when the
// reference is stale or unset.
func (l *Ledger) AccountName(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.state.AccountByID(id); a != nil {
		return a.Name
	}
	return ""
}
