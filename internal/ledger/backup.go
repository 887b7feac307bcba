package ledger

import (
	"context"
	"encoding/json"
	"log/slog"

	"khata/internal/core"
)

// Restore replaces the whole ledger state from a backup document. Both the
// wrapped export form ({"state": {...}}) and a bare state object are
// accepted. Validation happens before any mutation; a bad document leaves
// the running state untouched.
func (l *Ledger) Restore(ctx context.Context, raw []byte) error {
	payload, err := probeBackup(raw)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Missing sections fall back to the defaults of a fresh state.
	next := core.NewState(l.now())
	if err := json.Unmarshal(payload, next); err != nil {
		return core.ErrInvalidBackup
	}
	next.Normalize(l.now())

	prev := l.state
	l.state = next
	if err := l.persistLocked(ctx); err != nil {
		l.state = prev
		return err
	}
	slog.InfoContext(ctx, "State restored from backup",
		"period", l.state.CurrentMonthKey.String(),
		"accounts", len(l.state.Accounts),
		"history_len", len(l.state.History))
	return nil
}

// probeBackup checks the minimal shape a backup must have before anything is
// replaced: a current month object carrying both an income total and an
// expense list. Presence of the keys is what matters, not their values, so
// null-valued empty sections still pass.
func probeBackup(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, core.ErrInvalidBackup
	}
	payload := raw
	if inner, ok := doc["state"]; ok {
		if err := json.Unmarshal(inner, &doc); err != nil {
			return nil, core.ErrInvalidBackup
		}
		payload = inner
	}
	curRaw, ok := doc["currentMonth"]
	if !ok {
		return nil, core.ErrInvalidBackup
	}
	var cur map[string]json.RawMessage
	if err := json.Unmarshal(curRaw, &cur); err != nil {
		return nil, core.ErrInvalidBackup
	}
	if _, ok := cur["monthlyIncome"]; !ok {
		return nil, core.ErrInvalidBackup
	}
	if _, ok := cur["expenses"]; !ok {
		return nil, core.ErrInvalidBackup
	}
	return payload, nil
}

// Reset discards everything and starts over with an empty state keyed from
// the current date.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.state
	l.state = core.NewState(l.now())
	if err := l.persistLocked(ctx); err != nil {
		l.state = prev
		return err
	}
	slog.InfoContext(ctx, "State reset", "period", l.state.CurrentMonthKey.String())
	return nil
}
