package http

import (
	"net/http"

	"khata/internal/core"
)

type goalView struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Current       float64 `json:"current"`
	Target        float64 `json:"target"`
	LinkedAccount string  `json:"linkedAccount,omitempty"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals := s.ledger.Goals()
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalView{
			Key:           g.Key,
			Name:          g.Name,
			Current:       g.Current.Rupees(),
			Target:        g.Target.Rupees(),
			LinkedAccount: g.LinkedAccount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": out})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Target  string `json:"target"`
		Account string `json:"account"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w)
		return
	}
	target, err := core.ParseAmount(req.Target)
	if err != nil {
		writeError(w, core.ErrInvalidGoal)
		return
	}
	key, err := s.ledger.CreateGoal(r.Context(), req.Name, target, req.Account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount  string `json:"amount"`
		Account string `json:"account"`
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
	if err := s.ledger.Contribute(r.Context(), r.PathValue("key"), amount, req.Account); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusCreated, nil)
}
