package http

import (
	"net/http"

	"khata/internal/core"
	"khata/internal/ledger"
)

type summaryResponse struct {
	Label      string             `json:"label"`
	Income     float64            `json:"income"`
	Spent      float64            `json:"spent"`
	Balance    float64            `json:"balance"`
	ByCategory []categoryAmountVM `json:"byCategory"`
}

type categoryAmountVM struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// invalidateCurrent drops the cached summary of the mutable period. Archived
// summaries never change, their entries can ride out the TTL.
func (s *Server) invalidateCurrent() {
	s.summaryCache.Delete(ledger.PeriodSelectorCurrent)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	outcomes, err := s.ledger.AddIncome(r.Context(), req.Description, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	if outcomes == nil {
		outcomes = []ledger.AutoPayOutcome{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"autoPay": outcomes})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Category    string `json:"category"`
		Amount      string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.AddExpense(r.Context(), req.Description, req.Category, amount); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"months": s.ledger.Periods()})
}

func (s *Server) handleMonthData(w http.ResponseWriter, r *http.Request) {
	m, label, err := s.ledger.MonthData(r.PathValue("selector"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"label":    label,
		"incomes":  m.Incomes,
		"expenses": m.Expenses,
	})
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	selector := r.PathValue("selector")
	if cached, ok := s.summaryCache.Get(selector); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	m, label, err := s.ledger.MonthData(selector)
	if err != nil {
		writeError(w, err)
		return
	}
	sum := core.Summarize(m)
	resp := summaryResponse{
		Label:      label,
		Income:     sum.Income.Rupees(),
		Spent:      sum.Spent.Rupees(),
		Balance:    sum.Income.Sub(sum.Spent).Rupees(),
		ByCategory: make([]categoryAmountVM, 0, len(sum.ByCategory)),
	}
	for _, c := range sum.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountVM{
			Category: c.Name,
			Amount:   c.Amount.Rupees(),
		})
	}
	s.summaryCache.Set(selector, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	label, next, err := s.ledger.Rollover(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusOK, map[string]string{
		"archived":   label,
		"nextPeriod": next.String(),
	})
}
