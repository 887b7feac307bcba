package http

import (
	"net/http"

	"khata/internal/core"
	"khata/internal/ledger"
)

type obligationView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Amount          float64 `json:"amount"`
	DefaultEstimate float64 `json:"defaultEstimate"`
	OccurrencesLeft int     `json:"occurrencesLeft"`
	IntervalMonths  int     `json:"intervalMonths"`
	LinkedAccount   string  `json:"linkedAccount,omitempty"`
	AutoPay         bool    `json:"autoPay"`
	LastPaidMonth   string  `json:"lastPaidMonth,omitempty"`
	NextDue         string  `json:"nextDue,omitempty"`
}

func obligationToView(o core.Obligation) obligationView {
	return obligationView{
		ID:              o.ID,
		Name:            o.Name,
		Type:            string(o.Type),
		Amount:          o.Amount.Rupees(),
		DefaultEstimate: o.DefaultEstimate.Rupees(),
		OccurrencesLeft: o.OccurrencesLeft,
		IntervalMonths:  o.IntervalMonths,
		LinkedAccount:   o.LinkedAccount,
		AutoPay:         o.AutoPay,
		LastPaidMonth:   o.LastPaidMonth.String(),
		NextDue:         o.NextDue.String(),
	}
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	obligations := s.ledger.Obligations()
	out := make([]obligationView, 0, len(obligations))
	for _, o := range obligations {
		out = append(out, obligationToView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": out})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Type            string `json:"type"`
		Amount          string `json:"amount"`
		DefaultEstimate string `json:"defaultEstimate"`
		Occurrences     int    `json:"occurrences"`
		IntervalMonths  int    `json:"intervalMonths"`
		Account         string `json:"account"`
		AutoPay         bool   `json:"autoPay"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		writeError(w, core.ErrInvalidRecurring)
		return
	}
	estimate, err := parseOptionalAmount(req.DefaultEstimate)
	if err != nil {
		writeError(w, core.ErrInvalidRecurring)
		return
	}
	o, err := s.ledger.CreateObligation(r.Context(), core.Obligation{
		Name:            req.Name,
		Type:            core.ObligationType(req.Type),
		Amount:          amount,
		DefaultEstimate: estimate,
		OccurrencesLeft: req.Occurrences,
		IntervalMonths:  req.IntervalMonths,
		LinkedAccount:   req.Account,
		AutoPay:         req.AutoPay,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, obligationToView(o))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteObligation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePayRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.PayObligation(r.Context(), r.PathValue("id"), amount); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDueRecurring(w http.ResponseWriter, r *http.Request) {
	type dueView struct {
		Obligation   obligationView `json:"obligation"`
		AmountNeeded float64        `json:"amountNeeded"`
		Insufficient bool           `json:"insufficient"`
	}
	due := s.ledger.DueObligations()
	out := make([]dueView, 0, len(due))
	for _, d := range due {
		out = append(out, dueView{
			Obligation:   obligationToView(d.Obligation),
			AmountNeeded: d.AmountNeeded.Rupees(),
			Insufficient: d.Insufficient,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"due": out})
}

func (s *Server) handleRunAutoPay(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.ledger.RunAutoPay(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	if outcomes == nil {
		outcomes = []ledger.AutoPayOutcome{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}
