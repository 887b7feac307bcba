package core

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FixedObligation    ObligationType = "fixed"
	VariableObligation ObligationType = "variable"
)

// CategorySavings tags goal contributions recorded as expenses; goal money
// counts against the operating budget, it is not a transfer outside it.
const CategorySavings = "Savings"

type (
	ObligationType string

	// Account is a named cash account. Balance is mutated only through
	// ledger operations and never goes negative from an expense,
	// contribution or recurring payment.
	Account struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Balance Money  `json:"balance"`
	}

	IncomeEntry struct {
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
	}

	ExpenseEntry struct {
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		AccountID   string    `json:"account,omitempty"`
	}

	// Goal is a savings goal, optionally linked to an account.
	Goal struct {
		Name          string `json:"name"`
		Current       Money  `json:"current"`
		Target        Money  `json:"target"`
		LinkedAccount string `json:"linkedAccount,omitempty"`
	}

	// Obligation is a recurring expense commitment with a remaining
	// occurrence count. OccurrencesLeft reaching 0 is terminal; the
	// obligation is kept but never reported due again.
	Obligation struct {
		ID              string         `json:"id"`
		Name            string         `json:"name"`
		Type            ObligationType `json:"type"`
		Amount          Money          `json:"amount"`          // fixed type
		DefaultEstimate Money          `json:"defaultEstimate"` // variable type
		OccurrencesLeft int            `json:"occurrencesLeft"`
		IntervalMonths  int            `json:"intervalMonths"`
		LinkedAccount   string         `json:"linkedAccount,omitempty"`
		AutoPay         bool           `json:"autoPay"`
		LastPaidMonth   Period         `json:"lastPaidMonth,omitempty"`
		NextDue         Period         `json:"nextDueKey,omitempty"`
	}

	// MonthLedger holds one period's income and expense transactions.
	MonthLedger struct {
		MonthlyIncome Money          `json:"monthlyIncome"`
		Incomes       []IncomeEntry  `json:"incomes"`
		Expenses      []ExpenseEntry `json:"expenses"`
	}

	// ArchivedMonth is a frozen MonthLedger tagged with its display label.
	ArchivedMonth struct {
		MonthLedger
		Label string `json:"monthName"`
	}

	// State is the single aggregate root the orchestrator owns. Exactly one
	// MonthLedger (CurrentMonth) is mutable; History is append-only.
	State struct {
		CurrentMonth    MonthLedger      `json:"currentMonth"`
		CurrentMonthKey Period           `json:"currentMonthKey"`
		History         []ArchivedMonth  `json:"monthlyHistory"`
		Goals           map[string]*Goal `json:"goals"`
		Accounts        []*Account       `json:"accounts"`
		SelectedAccount string           `json:"selectedAccount,omitempty"`
		Obligations     []*Obligation    `json:"recurringExpenses"`
		// UI preferences are carried opaquely so backups round-trip; no
		// ledger operation reads them.
		UI map[string]bool `json:"ui,omitempty"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidGoal         = errors.New("invalid goal")
	ErrInvalidRecurring    = errors.New("invalid recurring expense")
	ErrNoAccountSelected   = errors.New("no account selected")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNothingToSave       = errors.New("nothing to save")
	ErrInvalidBackup       = errors.New("invalid backup payload")
	ErrInvalidPeriod       = errors.New("invalid period key")
	ErrNotFound            = errors.New("not found")
)

// NewState returns the default empty state: one fresh period keyed from now,
// no accounts, no goals, no obligations.
func NewState(now time.Time) *State {
	return &State{
		CurrentMonth:    MonthLedger{},
		CurrentMonthKey: PeriodOf(now),
		Goals:           map[string]*Goal{},
	}
}

// Normalize repairs a loaded or restored state so required containers exist
// and the current period key is set. Older snapshots may miss keys entirely.
func (s *State) Normalize(now time.Time) {
	if s.Goals == nil {
		s.Goals = map[string]*Goal{}
	}
	if s.CurrentMonthKey.IsZero() {
		s.CurrentMonthKey = PeriodOf(now)
	}
	for _, o := range s.Obligations {
		if o.IntervalMonths < 1 {
			o.IntervalMonths = 1
		}
		if o.OccurrencesLeft < 0 {
			o.OccurrencesLeft = 0
		}
	}
}

// AccountByID returns the account with the given ID, or nil.
func (s *State) AccountByID(id string) *Account {
	if id == "" {
		return nil
	}
	for _, a := range s.Accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// ObligationByID returns the obligation with the given ID, or nil.
func (s *State) ObligationByID(id string) *Obligation {
	for _, o := range s.Obligations {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// TotalBalance sums all account balances.
func (s *State) TotalBalance() Money {
	var total Money
	for _, a := range s.Accounts {
		total = total.Add(a.Balance)
	}
	return total
}

func (e ExpenseEntry) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Amount.Validate()
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrInvalidGoal
	}
	if g.Target.Paise <= 0 {
		return ErrInvalidGoal
	}
	return nil
}

func (o Obligation) Validate() error {
	if len(strings.TrimSpace(o.Name)) == 0 {
		return ErrInvalidRecurring
	}
	if o.OccurrencesLeft <= 0 {
		return ErrInvalidRecurring
	}
	if o.IntervalMonths < 1 {
		return ErrInvalidRecurring
	}
	switch o.Type {
	case FixedObligation, VariableObligation:
	default:
		return ErrInvalidRecurring
	}
	if o.Type == FixedObligation && o.Amount.Paise <= 0 {
		return ErrInvalidRecurring
	}
	return nil
}

// NewAccountID generates an opaque account identifier. Accounts are
// addressed by these stable IDs rather than slice positions, so references
// survive reordering if deletion is ever added.
func NewAccountID() string { return newID("acct") }

// NewObligationID generates an opaque obligation identifier.
func NewObligationID() string { return newID("rec") }

func newID(prefix string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(b)
}
