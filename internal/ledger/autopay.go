package ledger

import (
	"context"
	"log/slog"

	"khata/internal/core"
)

// AutoPayStatus classifies what an unattended pass did with one obligation.
type AutoPayStatus string

const (
	OutcomePaid                     AutoPayStatus = "paid"
	OutcomeSkippedInsufficientFunds AutoPayStatus = "skipped_insufficient_funds"
	OutcomeNotDue                   AutoPayStatus = "not_due"
)

// AutoPayOutcome reports the result of one obligation during an auto-pay
// pass. Skips carry a Reason so operators can tell a short balance from a
// missing account or a zero estimate.
type AutoPayOutcome struct {
	ObligationID string        `json:"obligationId"`
	Name         string        `json:"name"`
	Status       AutoPayStatus `json:"status"`
	Amount       core.Money    `json:"amount"`
	AccountID    string        `json:"accountId,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// RunAutoPay settles every due auto-pay obligation it can fund and reports
// an explicit outcome per obligation considered. Skipped obligations stay
// due and are retried on the next pass.
func (l *Ledger) RunAutoPay(ctx context.Context) ([]AutoPayOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	outcomes := l.runAutoPayLocked(ctx)
	for _, o := range outcomes {
		if o.Status == OutcomePaid {
			if err := l.persistLocked(ctx); err != nil {
				return nil, err
			}
			break
		}
	}
	return outcomes, nil
}

// runAutoPayLocked is the shared pass body. It mutates state but does not
// persist; callers that observe a paid outcome persist afterwards.
func (l *Ledger) runAutoPayLocked(ctx context.Context) []AutoPayOutcome {
	period := l.state.CurrentMonthKey
	var outcomes []AutoPayOutcome
	for _, o := range l.state.Obligations {
		if !o.AutoPay {
			continue
		}
		out := AutoPayOutcome{ObligationID: o.ID, Name: o.Name}
		if !obligationDue(o, period) {
			out.Status = OutcomeNotDue
			outcomes = append(outcomes, out)
			continue
		}
		charge := autoAmount(o)
		out.Amount = charge
		if charge.Paise <= 0 {
			out.Status = OutcomeSkippedInsufficientFunds
			out.Reason = "no chargeable amount configured"
			outcomes = append(outcomes, out)
			continue
		}
		acct, err := l.resolveAccountLocked(o.LinkedAccount)
		if err != nil {
			out.Status = OutcomeSkippedInsufficientFunds
			out.Reason = "no account to charge"
			outcomes = append(outcomes, out)
			continue
		}
		if acct.Balance.Paise < charge.Paise {
			out.Status = OutcomeSkippedInsufficientFunds
			out.Reason = "insufficient balance"
			out.AccountID = acct.ID
			outcomes = append(outcomes, out)
			slog.WarnContext(ctx, "Auto-pay skipped",
				"obligation_id", o.ID,
				"name", o.Name,
				"needed_paise", charge.Paise,
				"balance_paise", acct.Balance.Paise)
			continue
		}
		if err := l.payObligationLocked(o, charge, "auto"); err != nil {
			out.Status = OutcomeSkippedInsufficientFunds
			out.Reason = err.Error()
			outcomes = append(outcomes, out)
			continue
		}
		out.Status = OutcomePaid
		out.AccountID = acct.ID
		outcomes = append(outcomes, out)
		slog.InfoContext(ctx, "Auto-pay settled",
			"obligation_id", o.ID,
			"name", o.Name,
			"amount_paise", charge.Paise,
			"account_id", acct.ID,
			"occurrences_left", o.OccurrencesLeft)
	}
	return outcomes
}
