package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"khata/internal/core"
)

// errorBody is the JSON error envelope all endpoints share.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v with the given status. Encoding failures are logged,
// not surfaced; headers are already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes and user-facing
// messages.
func writeError(w http.ResponseWriter, err error) {
	status, code, message := classifyError(err)
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "invalid_amount", "Enter a valid amount."
	case errors.Is(err, core.ErrEmptyDescription):
		return http.StatusUnprocessableEntity, "empty_description", "Enter a description."
	case errors.Is(err, core.ErrInvalidGoal):
		return http.StatusUnprocessableEntity, "invalid_goal", "Enter a goal name and a valid target amount."
	case errors.Is(err, core.ErrInvalidRecurring):
		return http.StatusUnprocessableEntity, "invalid_recurring", "Enter valid recurring expense details."
	case errors.Is(err, core.ErrNoAccountSelected):
		return http.StatusUnprocessableEntity, "no_account", "Add an account first."
	case errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance", "Insufficient balance in the selected account."
	case errors.Is(err, core.ErrNothingToSave):
		return http.StatusUnprocessableEntity, "nothing_to_save", "Add income or expenses before saving the month."
	case errors.Is(err, core.ErrInvalidBackup):
		return http.StatusUnprocessableEntity, "invalid_backup", "Invalid backup file."
	case errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity, "invalid_period", "Invalid month key."
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found", "Not found."
	default:
		return http.StatusInternalServerError, "internal", "Something went wrong."
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// badRequest reports an unparsable request body.
func badRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]errorBody{
		"error": {Code: "bad_request", Message: "Invalid request body."},
	})
}
