package ledger

import (
	"context"
	"log/slog"
	"strings"

	"khata/internal/core"
)

// AddAccount creates a named cash account with an optional opening balance
// and selects it. Opening balance may be zero.
func (l *Ledger) AddAccount(ctx context.Context, name string, opening core.Money) (core.Account, error) {
	if strings.TrimSpace(name) == "" {
		return core.Account{}, core.ErrEmptyDescription
	}
	if opening.Paise < 0 {
		return core.Account{}, core.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := &core.Account{ID: core.NewAccountID(), Name: strings.TrimSpace(name), Balance: opening}
	l.state.Accounts = append(l.state.Accounts, acct)
	l.state.SelectedAccount = acct.ID
	if err := l.persistLocked(ctx); err != nil {
		return core.Account{}, err
	}
	slog.InfoContext(ctx, "Account created",
		"account_id", acct.ID,
		"name", acct.Name,
		"opening_paise", acct.Balance.Paise)
	return *acct, nil
}

// SelectAccount switches the default account used when an operation names
// none.
func (l *Ledger) SelectAccount(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.AccountByID(id) == nil {
		return core.ErrNotFound
	}
	l.state.SelectedAccount = id
	return l.persistLocked(ctx)
}

// Accounts returns copies of all accounts plus the selected account ID.
func (l *Ledger) Accounts() ([]core.Account, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Account, len(l.state.Accounts))
	for i, a := range l.state.Accounts {
		out[i] = *a
	}
	return out, l.state.SelectedAccount
}
