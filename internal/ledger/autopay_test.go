package ledger

import (
	"context"
	"testing"

	"khata/internal/core"
)

func TestIncomeTriggersAutoPay(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	acct, _ := l.AddAccount(ctx, "Checking", core.Money{})
	o, err := l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}

	outcomes, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 20000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomePaid {
		t.Fatalf("expected one paid outcome, got %+v", outcomes)
	}
	if outcomes[0].ObligationID != o.ID || outcomes[0].Amount.Paise != 5000 {
		t.Fatalf("unexpected outcome: %+v", outcomes[0])
	}

	snap := l.Snapshot()
	if got := snap.AccountByID(acct.ID).Balance.Paise; got != 15000 {
		t.Fatalf("expected balance 15000 after auto-pay, got %d", got)
	}
	paid := snap.ObligationByID(o.ID)
	if paid.OccurrencesLeft != 2 {
		t.Fatalf("expected 2 occurrences left, got %d", paid.OccurrencesLeft)
	}
	if paid.LastPaidMonth.String() != "2025-1" || paid.NextDue.String() != "2025-2" {
		t.Fatalf("unexpected schedule: lastPaid=%s nextDue=%s", paid.LastPaidMonth.String(), paid.NextDue.String())
	}
	e := snap.CurrentMonth.Expenses[0]
	if e.Description != "Rent (auto)" || e.Category != "Rent" {
		t.Fatalf("unexpected auto-pay entry: %+v", e)
	}
}

func TestAutoPaySkipsWhenShort(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	acct, _ := l.AddAccount(ctx, "Checking", core.Money{})
	o, _ := l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 50000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})

	outcomes, err := l.AddIncome(ctx, "Tip", core.Money{Paise: 1000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeSkippedInsufficientFunds {
		t.Fatalf("expected skipped outcome, got %+v", outcomes)
	}
	if outcomes[0].Reason != "insufficient balance" {
		t.Fatalf("expected reason, got %q", outcomes[0].Reason)
	}

	snap := l.Snapshot()
	if got := snap.AccountByID(acct.ID).Balance.Paise; got != 1000 {
		t.Fatalf("skip must leave the balance alone, got %d", got)
	}
	skipped := snap.ObligationByID(o.ID)
	if skipped.OccurrencesLeft != 3 || !skipped.LastPaidMonth.IsZero() {
		t.Fatalf("skip must not advance the schedule: %+v", skipped)
	}

	// Enough money arrives later; the obligation is still due and gets paid.
	outcomes, err = l.AddIncome(ctx, "Salary", core.Money{Paise: 100000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomePaid {
		t.Fatalf("expected retry to pay, got %+v", outcomes)
	}
}

func TestAutoPayIgnoresManualObligations(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{})
	l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
	})

	outcomes, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 20000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("manual obligations must not appear in auto-pay outcomes, got %+v", outcomes)
	}
}

func TestAutoPayNotDueTwiceInOnePeriod(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{})
	l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})

	if _, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 20000}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	outcomes, err := l.AddIncome(ctx, "Bonus", core.Money{Paise: 20000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeNotDue {
		t.Fatalf("expected not-due outcome on second deposit, got %+v", outcomes)
	}
	snap := l.Snapshot()
	if len(snap.CurrentMonth.Expenses) != 1 {
		t.Fatalf("obligation must be charged once per period, got %d entries", len(snap.CurrentMonth.Expenses))
	}
}

func TestAutoPayDueAgainAfterRollover(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{})
	o, _ := l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})
	l.AddIncome(ctx, "Salary", core.Money{Paise: 20000})
	l.Rollover(ctx)

	outcomes, err := l.RunAutoPay(ctx)
	if err != nil {
		t.Fatalf("RunAutoPay: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomePaid {
		t.Fatalf("expected paid outcome in the new period, got %+v", outcomes)
	}
	snap := l.Snapshot()
	paid := snap.ObligationByID(o.ID)
	if paid.OccurrencesLeft != 1 || paid.NextDue.String() != "2025-3" {
		t.Fatalf("unexpected schedule after second payment: %+v", paid)
	}
}

func TestAutoPayVariableUsesEstimate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{})
	l.CreateObligation(ctx, core.Obligation{
		Name:            "Electricity",
		Type:            core.VariableObligation,
		DefaultEstimate: core.Money{Paise: 3000},
		OccurrencesLeft: 12,
		IntervalMonths:  1,
		AutoPay:         true,
	})

	outcomes, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 20000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomePaid || outcomes[0].Amount.Paise != 3000 {
		t.Fatalf("expected estimate charged, got %+v", outcomes)
	}
}

func TestAutoPayVariableWithoutEstimateSkips(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{})
	l.CreateObligation(ctx, core.Obligation{
		Name:            "Electricity",
		Type:            core.VariableObligation,
		OccurrencesLeft: 12,
		IntervalMonths:  1,
		AutoPay:         true,
	})

	outcomes, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 20000})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomeSkippedInsufficientFunds {
		t.Fatalf("expected skip without a chargeable amount, got %+v", outcomes)
	}
	if outcomes[0].Reason != "no chargeable amount configured" {
		t.Fatalf("unexpected reason: %q", outcomes[0].Reason)
	}
}

func TestRunAutoPayPersistsOnPayment(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()
	l.AddAccount(ctx, "Checking", core.Money{Paise: 20000})
	o, _ := l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})

	outcomes, err := l.RunAutoPay(ctx)
	if err != nil {
		t.Fatalf("RunAutoPay: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != OutcomePaid {
		t.Fatalf("expected paid outcome, got %+v", outcomes)
	}
	if got := store.saved.ObligationByID(o.ID).OccurrencesLeft; got != 2 {
		t.Fatalf("expected persisted occurrence count 2, got %d", got)
	}
}

func TestInterleavedScenario(t *testing.T) {
	// End-to-end walk: open an account, earn, spend, auto-pay, contribute,
	// roll the month.
	l, _ := newTestLedger(t)
	ctx := context.Background()

	acct, _ := l.AddAccount(ctx, "Checking", core.Money{Paise: 10000})
	l.CreateObligation(ctx, core.Obligation{
		Name:            "Rent",
		Type:            core.FixedObligation,
		Amount:          core.Money{Paise: 5000},
		OccurrencesLeft: 3,
		IntervalMonths:  1,
		AutoPay:         true,
	})
	key, _ := l.CreateGoal(ctx, "Emergency Fund", core.Money{Paise: 100000}, acct.ID)

	if _, err := l.AddIncome(ctx, "Salary", core.Money{Paise: 50000}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if err := l.AddExpense(ctx, "Groceries", "Food", core.Money{Paise: 2500}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if err := l.Contribute(ctx, key, core.Money{Paise: 10000}, ""); err != nil {
		t.Fatalf("Contribute: %v", err)
	}

	snap := l.Snapshot()
	// 10000 + 50000 - 5000 (rent) - 2500 - 10000 (goal)
	if got := snap.AccountByID(acct.ID).Balance.Paise; got != 42500 {
		t.Fatalf("expected balance 42500, got %d", got)
	}
	sum := core.Summarize(snap.CurrentMonth)
	if sum.Income.Paise != 50000 {
		t.Fatalf("expected income 50000, got %d", sum.Income.Paise)
	}
	if sum.Spent.Paise != 17500 {
		t.Fatalf("expected spent 17500, got %d", sum.Spent.Paise)
	}

	label, next, err := l.Rollover(ctx)
	if err != nil {
		t.Fatalf("Rollover: %v", err)
	}
	if label != "January 2025" || next.String() != "2025-2" {
		t.Fatalf("unexpected rollover result: %q %q", label, next.String())
	}
	snap = l.Snapshot()
	if got := snap.AccountByID(acct.ID).Balance.Paise; got != 42500 {
		t.Fatalf("rollover must not touch balances, got %d", got)
	}
}
