// Package services coordinates the ledger with the outside world: periodic
// auto-pay passes and the notices they emit.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"khata/internal/amqp"
	"khata/internal/ledger"
)

// NoticePublisher is the outbound port for obligation notices. *amqp.Client
// satisfies it; a nil publisher disables notices.
type NoticePublisher interface {
	PublishDueNotice(ctx context.Context, msg *amqp.DueNoticeMessage) error
}

// AutoPayProcessor runs auto-pay passes and publishes a notice per
// actionable outcome, so reminders reach the user for anything skipped.
type AutoPayProcessor struct {
	ledger    *ledger.Ledger
	publisher NoticePublisher
}

// NewAutoPayProcessor creates a processor. publisher may be nil.
func NewAutoPayProcessor(l *ledger.Ledger, publisher NoticePublisher) *AutoPayProcessor {
	return &AutoPayProcessor{
		ledger:    l,
		publisher: publisher,
	}
}

// ProcessDue runs one auto-pay pass and returns how many obligations were
// settled. Publish failures do not fail the pass; the payment already
// happened and is persisted.
func (p *AutoPayProcessor) ProcessDue(ctx context.Context) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	outcomes, err := p.ledger.RunAutoPay(ctx)
	if err != nil {
		return 0, fmt.Errorf("run auto-pay: %w", err)
	}
	period := p.ledger.CurrentPeriod().String()

	paidCount := 0
	for _, out := range outcomes {
		switch out.Status {
		case ledger.OutcomePaid:
			paidCount++
		case ledger.OutcomeSkippedInsufficientFunds:
			slog.WarnContext(ctx, "Obligation left unpaid",
				"obligation_id", out.ObligationID,
				"name", out.Name,
				"reason", out.Reason)
		case ledger.OutcomeNotDue:
			continue
		}
		p.publish(ctx, out, period)
	}

	slog.InfoContext(ctx, "Auto-pay pass complete",
		"period", period,
		"paid", paidCount,
		"total_checked", len(outcomes))
	return paidCount, nil
}

func (p *AutoPayProcessor) publish(ctx context.Context, out ledger.AutoPayOutcome, period string) {
	if p.publisher == nil {
		return
	}
	msg := amqp.NewDueNoticeMessage(out.ObligationID, out.Name, period, string(out.Status), out.Amount.Paise, out.Reason)
	if err := p.publisher.PublishDueNotice(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish due notice",
			"obligation_id", out.ObligationID,
			"status", string(out.Status),
			"error", err)
	}
}
