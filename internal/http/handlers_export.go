package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"khata/internal/export"
	"khata/internal/export/sheets"
)

// restoreBodyLimit caps uploaded backups; anything legitimate is far below.
const restoreBodyLimit = 8 << 20

func (s *Server) handleExportMonth(w http.ResponseWriter, r *http.Request) {
	m, label, err := s.ledger.MonthData(r.PathValue("selector"))
	if err != nil {
		writeError(w, err)
		return
	}
	payload := export.Month(m, label, time.Now())
	b, err := export.MarshalIndent(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(label, "json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	m, label, err := s.ledger.MonthData(r.PathValue("selector"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(label, "csv"))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, m, s.ledger.AccountName); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	payload := export.Backup(s.ledger.Snapshot(), time.Now())
	b, err := export.MarshalIndent(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("khata-backup", "json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	m, label, err := s.ledger.MonthData(r.PathValue("selector"))
	if err != nil {
		writeError(w, err)
		return
	}
	client, err := sheets.NewFromEnv(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Sheets export unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]errorBody{
			"error": {Code: "sheets_unavailable", Message: "Google Sheets export is not configured."},
		})
		return
	}
	if err := client.AppendMonth(r.Context(), m, label, s.ledger.AccountName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "exported", "month": label})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, restoreBodyLimit))
	if err != nil {
		badRequest(w)
		return
	}
	if err := s.ledger.Restore(r.Context(), raw); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateCurrent()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func attachment(name, ext string) string {
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if name == "" {
		name = "export"
	}
	return fmt.Sprintf(`attachment; filename="%s.%s"`, name, ext)
}
