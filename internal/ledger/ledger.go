// Package ledger implements the state-transition rules of the finance
// ledger: how income, expenses, account balances, savings goals and
// recurring obligations interact. One Ledger owns the whole state; every
// mutation validates first, applies atomically under the lock, then persists
// the full snapshot before returning.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"khata/internal/core"
)

// Store is the persistence port. Load returns (nil, nil) when no state has
// been saved yet.
type Store interface {
	Save(ctx context.Context, s *core.State) error
	Load(ctx context.Context) (*core.State, error)
}

// Ledger coordinates all mutations of the single global ledger state.
// Mutations are serialized by the mutex; a mutation either fully applies or
// fully aborts, there is no partial application.
type Ledger struct {
	mu    sync.Mutex
	state *core.State
	store Store
	now   func() time.Time
}

// New loads persisted state from the store or initializes the default empty
// state keyed from the current date.
func New(ctx context.Context, store Store, now func() time.Time) (*Ledger, error) {
	if now == nil {
		now = time.Now
	}
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if state == nil {
		state = core.NewState(now())
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("persist initial state: %w", err)
		}
		slog.InfoContext(ctx, "Initialized empty ledger state", "period", state.CurrentMonthKey.String())
	} else {
		state.Normalize(now())
	}
	return &Ledger{state: state, store: store, now: now}, nil
}

// Snapshot returns a deep copy of the current state for rendering and
// export. Callers never see live references into the ledger.
func (l *Ledger) Snapshot() core.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneState(l.state)
}

// CurrentPeriod returns the key of the mutable period.
func (l *Ledger) CurrentPeriod() core.Period {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.CurrentMonthKey
}

// persistLocked writes the full state snapshot. Called with the lock held,
// after the in-memory mutation succeeded; persistence and mutation count as
// one logical step.
func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.store.Save(ctx, l.state); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// resolveAccountLocked picks the account a mutation touches: the explicit
// reference when it names an existing account, else the selected account.
// Stale IDs fall through to the selection.
func (l *Ledger) resolveAccountLocked(explicitID string) (*core.Account, error) {
	if a := l.state.AccountByID(explicitID); a != nil {
		return a, nil
	}
	if a := l.state.AccountByID(l.state.SelectedAccount); a != nil {
		return a, nil
	}
	return nil, core.ErrNoAccountSelected
}

// creditLocked increases a balance; deposits are unconstrained beyond the
// positive-amount check.
func creditLocked(a *core.Account, amount core.Money) error {
	if amount.Paise <= 0 {
		return core.ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// debitLocked decreases a balance, refusing overdrafts. Callers pair every
// debit with the ledger entry it funds before persisting.
func debitLocked(a *core.Account, amount core.Money) error {
	if amount.Paise <= 0 {
		return core.ErrInvalidAmount
	}
	if a.Balance.Paise < amount.Paise {
		return core.ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

func cloneState(s *core.State) core.State {
	// JSON round-trip keeps the copy in lockstep with the persisted shape.
	b, err := json.Marshal(s)
	if err != nil {
		return core.State{}
	}
	var out core.State
	if err := json.Unmarshal(b, &out); err != nil {
		return core.State{}
	}
	if out.Goals == nil {
		out.Goals = map[string]*core.Goal{}
	}
	return out
}
