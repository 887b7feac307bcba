package ledger

import (
	"context"
	"log/slog"
	"strings"

	"khata/internal/core"
)

// CreateObligation registers a recurring obligation. The first due period is
// the current one; NextDue then advances by IntervalMonths on every payment.
func (l *Ledger) CreateObligation(ctx context.Context, o core.Obligation) (core.Obligation, error) {
	o.Name = strings.TrimSpace(o.Name)
	if o.IntervalMonths == 0 {
		o.IntervalMonths = 1
	}
	if err := o.Validate(); err != nil {
		return core.Obligation{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	o.ID = core.NewObligationID()
	o.LastPaidMonth = core.Period{}
	o.NextDue = l.state.CurrentMonthKey
	if l.state.AccountByID(o.LinkedAccount) == nil {
		o.LinkedAccount = ""
	}
	stored := o
	l.state.Obligations = append(l.state.Obligations, &stored)

	if err := l.persistLocked(ctx); err != nil {
		return core.Obligation{}, err
	}
	slog.InfoContext(ctx, "Recurring obligation created",
		"obligation_id", o.ID,
		"name", o.Name,
		"type", string(o.Type),
		"occurrences", o.OccurrencesLeft,
		"interval_months", o.IntervalMonths,
		"auto_pay", o.AutoPay)
	return o, nil
}

// DeleteObligation removes a recurring obligation entirely.
func (l *Ledger) DeleteObligation(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.state.Obligations {
		if o.ID == id {
			l.state.Obligations = append(l.state.Obligations[:i], l.state.Obligations[i+1:]...)
			return l.persistLocked(ctx)
		}
	}
	return core.ErrNotFound
}

// PayObligation settles one occurrence manually. For fixed obligations the
// charge is the configured amount and the caller's amount is ignored; for
// variable obligations the caller supplies it.
func (l *Ledger) PayObligation(ctx context.Context, id string, amount core.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o := l.state.ObligationByID(id)
	if o == nil {
		return core.ErrNotFound
	}
	charge := o.Amount
	if o.Type == core.VariableObligation {
		charge = amount
	}
	if charge.Paise <= 0 {
		return core.ErrInvalidAmount
	}
	if err := l.payObligationLocked(o, charge, "manual"); err != nil {
		return err
	}
	if err := l.persistLocked(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Recurring obligation paid",
		"obligation_id", o.ID,
		"name", o.Name,
		"amount_paise", charge.Paise,
		"occurrences_left", o.OccurrencesLeft,
		"next_due", o.NextDue.String())
	return nil
}

// payObligationLocked applies one payment: debit, expense entry, occurrence
// decrement (floor 0), lastPaidMonth and nextDue bookkeeping. The debit and
// the expense entry are one atomic step under the ledger lock.
func (l *Ledger) payObligationLocked(o *core.Obligation, charge core.Money, via string) error {
	acct, err := l.resolveAccountLocked(o.LinkedAccount)
	if err != nil {
		return err
	}
	if err := debitLocked(acct, charge); err != nil {
		return err
	}
	l.state.CurrentMonth.Expenses = append(l.state.CurrentMonth.Expenses, core.ExpenseEntry{
		Description: o.Name + " (" + via + ")",
		Category:    o.Name,
		Amount:      charge,
		Date:        l.now(),
		AccountID:   acct.ID,
	})
	if o.OccurrencesLeft > 0 {
		o.OccurrencesLeft--
	}
	o.LastPaidMonth = l.state.CurrentMonthKey
	o.NextDue = l.state.CurrentMonthKey.AddMonths(o.IntervalMonths)
	return nil
}

// obligationDue is the single due-resolution function. An obligation is due
// for a period when it still has occurrences left and either its next-due
// key equals the period, or (for records predating the due key) no due key
// is set and it was not already paid this period.
func obligationDue(o *core.Obligation, period core.Period) bool {
	if o.OccurrencesLeft <= 0 {
		return false
	}
	if !o.NextDue.IsZero() {
		return o.NextDue == period
	}
	return o.LastPaidMonth.IsZero() || o.LastPaidMonth != period
}

// autoAmount is the charge an unattended pass would use: the fixed amount,
// or the default estimate for variable obligations.
func autoAmount(o *core.Obligation) core.Money {
	if o.Type == core.VariableObligation {
		return o.DefaultEstimate
	}
	return o.Amount
}

// DueItem describes an obligation due in the current period, for the due
// dashboard and notifications.
type DueItem struct {
	Obligation   core.Obligation `json:"obligation"`
	AmountNeeded core.Money      `json:"amountNeeded"`
	Insufficient bool            `json:"insufficient"`
}

// DueObligations lists obligations due in the current period together with
// the amount needed and whether the resolved account can cover it.
func (l *Ledger) DueObligations() []DueItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []DueItem
	for _, o := range l.state.Obligations {
		if !obligationDue(o, l.state.CurrentMonthKey) {
			continue
		}
		item := DueItem{Obligation: *o, AmountNeeded: autoAmount(o)}
		if acct, err := l.resolveAccountLocked(o.LinkedAccount); err == nil {
			item.Insufficient = item.AmountNeeded.Paise > 0 && acct.Balance.Paise < item.AmountNeeded.Paise
		}
		out = append(out, item)
	}
	return out
}

// Obligations returns copies of all recurring obligations.
func (l *Ledger) Obligations() []core.Obligation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Obligation, len(l.state.Obligations))
	for i, o := range l.state.Obligations {
		out[i] = *o
	}
	return out
}
