package ledger

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"khata/internal/core"
)

// CreateGoal registers a savings goal keyed by a slug of its name; key
// collisions get a numeric suffix. The linked account is optional and may be
// empty.
func (l *Ledger) CreateGoal(ctx context.Context, name string, target core.Money, linkedAccount string) (string, error) {
	goal := core.Goal{Name: strings.TrimSpace(name), Target: target}
	if err := goal.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.AccountByID(linkedAccount) != nil {
		goal.LinkedAccount = linkedAccount
	}
	key := core.SlugKey(goal.Name, l.state.Goals)
	l.state.Goals[key] = &goal

	if err := l.persistLocked(ctx); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Goal created",
		"key", key,
		"target_paise", goal.Target.Paise,
		"linked_account", goal.LinkedAccount)
	return key, nil
}

// Contribute moves money into a goal. The amount is debited from the
// resolved account (explicit ref first, then the goal's linked account, then
// the selection) and recorded as a "Savings" expense in the current period,
// so contributions count against the operating budget.
func (l *Ledger) Contribute(ctx context.Context, goalKey string, amount core.Money, explicitAccount string) error {
	if amount.Paise <= 0 {
		return core.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	goal, ok := l.state.Goals[goalKey]
	if !ok {
		return core.ErrNotFound
	}
	ref := explicitAccount
	if l.state.AccountByID(ref) == nil {
		ref = goal.LinkedAccount
	}
	acct, err := l.resolveAccountLocked(ref)
	if err != nil {
		return err
	}
	if err := debitLocked(acct, amount); err != nil {
		return err
	}
	goal.Current = goal.Current.Add(amount)
	l.state.CurrentMonth.Expenses = append(l.state.CurrentMonth.Expenses, core.ExpenseEntry{
		Description: "Contribution to " + goal.Name,
		Category:    core.CategorySavings,
		Amount:      amount,
		Date:        l.now(),
		AccountID:   acct.ID,
	})

	if err := l.persistLocked(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Goal contribution",
		"key", goalKey,
		"amount_paise", amount.Paise,
		"current_paise", goal.Current.Paise,
		"account_id", acct.ID)
	return nil
}

// GoalView is a goal together with its key, for listing.
type GoalView struct {
	Key string `json:"key"`
	core.Goal
}

// Goals returns all goals sorted by key.
func (l *Ledger) Goals() []GoalView {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.state.Goals))
	for k := range l.state.Goals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]GoalView, 0, len(keys))
	for _, k := range keys {
		out = append(out, GoalView{Key: k, Goal: *l.state.Goals[k]})
	}
	return out
}
