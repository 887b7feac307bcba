package http

import (
	"net/http"

	"khata/internal/core"
)

type accountView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
	Selected bool    `json:"selected"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, selected := s.ledger.Accounts()
	out := make([]accountView, 0, len(accounts))
	var total core.Money
	for _, a := range accounts {
		out = append(out, accountView{
			ID:       a.ID,
			Name:     a.Name,
			Balance:  a.Balance.Rupees(),
			Selected: a.ID == selected,
		})
		total = total.Add(a.Balance)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts":     out,
		"totalBalance": total.Rupees(),
	})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		OpeningBalance string `json:"openingBalance"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	opening, err := parseOptionalAmount(req.OpeningBalance)
	if err != nil {
		writeError(w, err)
		return
	}
	acct, err := s.ledger.AddAccount(r.Context(), req.Name, opening)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusCreated, accountView{
		ID:       acct.ID,
		Name:     acct.Name,
		Balance:  acct.Balance.Rupees(),
		Selected: true,
	})
}

func (s *Server) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.SelectAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": r.PathValue("id")})
}

// parseOptionalAmount parses an amount field that may legitimately be empty
// or zero, unlike transaction amounts.
func parseOptionalAmount(s string) (core.Money, error) {
	if s == "" || s == "0" {
		return core.Money{}, nil
	}
	return core.ParseAmount(s)
}
