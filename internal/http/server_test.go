package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"khata/internal/ledger"
	"khata/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := func() time.Time { return time.Date(2025, time.August, 10, 9, 0, 0, 0, time.UTC) }
	l, err := ledger.New(context.Background(), storage.NewMemoryStore(), now)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	s := NewServer(":0", l)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeResponse(t, rec)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %q", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func createAccount(t *testing.T, s *Server, name, opening string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/accounts", map[string]string{
		"name":           name,
		"openingBalance": opening,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeResponse(t, rec)["id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createAccount(t, s, "Checking", "100.00")
	createAccount(t, s, "Savings", "")

	rec := doJSON(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	accounts := body["accounts"].([]any)
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if body["totalBalance"].(float64) != 100.0 {
		t.Fatalf("expected total 100, got %v", body["totalBalance"])
	}

	// Most recently created account is selected; switch back.
	rec = doJSON(t, s, http.MethodPost, "/api/accounts/"+id+"/select", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodPost, "/api/accounts/acct_missing/select", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("select missing: status %d", rec.Code)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/accounts", map[string]string{"name": "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: status %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "empty_description" {
		t.Fatalf("unexpected code %q", code)
	}
}

func TestIncomeAndExpenseFlow(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")

	rec := doJSON(t, s, http.MethodPost, "/api/income", map[string]string{
		"description": "Salary",
		"amount":      "500.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("income: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"description": "Groceries",
		"category":    "Food",
		"amount":      "120.50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/months/current/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["income"].(float64) != 500.0 || body["spent"].(float64) != 120.5 {
		t.Fatalf("unexpected summary: %v", body)
	}
	if body["label"].(string) != "August 2025" {
		t.Fatalf("unexpected label: %v", body["label"])
	}
	byCat, ok := body["byCategory"].([]any)
	if !ok || len(byCat) != 1 {
		t.Fatalf("expected one category bucket, got %v", body["byCategory"])
	}
	bucket := byCat[0].(map[string]any)
	if bucket["category"] != "Food" || bucket["amount"].(float64) != 120.5 {
		t.Fatalf("unexpected category bucket: %v", bucket)
	}
}

func TestExpenseErrors(t *testing.T) {
	s := newTestServer(t)

	// No account yet.
	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"description": "Coffee", "category": "Food", "amount": "5.00",
	})
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "no_account" {
		t.Fatalf("expected no_account, got %d %s", rec.Code, rec.Body.String())
	}

	createAccount(t, s, "Checking", "10.00")

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"description": "Laptop", "category": "Electronics", "amount": "1500.00",
	})
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"description": "Coffee", "category": "Food", "amount": "-3",
	})
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "invalid_amount" {
		t.Fatalf("expected invalid_amount, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rec.Code)
	}
}

func TestSummaryCacheInvalidation(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")

	doJSON(t, s, http.MethodPost, "/api/income", map[string]string{"amount": "100.00"})
	rec := doJSON(t, s, http.MethodGet, "/api/months/current/summary", nil)
	if got := decodeResponse(t, rec)["income"].(float64); got != 100.0 {
		t.Fatalf("expected income 100, got %v", got)
	}

	// Mutation must evict the cached current summary.
	doJSON(t, s, http.MethodPost, "/api/income", map[string]string{"amount": "50.00"})
	rec = doJSON(t, s, http.MethodGet, "/api/months/current/summary", nil)
	if got := decodeResponse(t, rec)["income"].(float64); got != 150.0 {
		t.Fatalf("expected fresh income 150, got %v", got)
	}
}

func TestRolloverEndpoint(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")

	rec := doJSON(t, s, http.MethodPost, "/api/months/rollover", nil)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "nothing_to_save" {
		t.Fatalf("expected nothing_to_save, got %d %s", rec.Code, rec.Body.String())
	}

	doJSON(t, s, http.MethodPost, "/api/income", map[string]string{"amount": "100.00"})
	rec = doJSON(t, s, http.MethodPost, "/api/months/rollover", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rollover: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if body["archived"] != "August 2025" || body["nextPeriod"] != "2025-9" {
		t.Fatalf("unexpected rollover response: %v", body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/months", nil)
	months := decodeResponse(t, rec)["months"].([]any)
	if len(months) != 2 {
		t.Fatalf("expected archived + current, got %d", len(months))
	}
}

func TestGoalEndpoints(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "1000.00")

	rec := doJSON(t, s, http.MethodPost, "/api/goals", map[string]string{
		"name": "Emergency Fund", "target": "5000.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: status %d body %s", rec.Code, rec.Body.String())
	}
	key := decodeResponse(t, rec)["key"].(string)
	if key != "emergency-fund" {
		t.Fatalf("unexpected key %q", key)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+key+"/contribute", map[string]string{"amount": "200.00"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribute: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/goals", nil)
	goals := decodeResponse(t, rec)["goals"].([]any)
	g := goals[0].(map[string]any)
	if g["current"].(float64) != 200.0 {
		t.Fatalf("expected progress 200, got %v", g["current"])
	}

	rec = doJSON(t, s, http.MethodPost, "/api/goals/missing/contribute", map[string]string{"amount": "10.00"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown goal, got %d", rec.Code)
	}
}

func TestRecurringEndpoints(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "100.00")

	rec := doJSON(t, s, http.MethodPost, "/api/recurring", map[string]any{
		"name": "Rent", "type": "fixed", "amount": "500.00",
		"occurrences": 12, "intervalMonths": 1, "autoPay": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create recurring: status %d body %s", rec.Code, rec.Body.String())
	}
	id := decodeResponse(t, rec)["id"].(string)

	rec = doJSON(t, s, http.MethodGet, "/api/recurring/due", nil)
	due := decodeResponse(t, rec)["due"].([]any)
	if len(due) != 1 {
		t.Fatalf("expected 1 due, got %d", len(due))
	}
	d := due[0].(map[string]any)
	if d["insufficient"].(bool) != true {
		t.Fatalf("expected insufficient flag, got %v", d)
	}

	// Auto-pay pass: not enough money, obligation stays due.
	rec = doJSON(t, s, http.MethodPost, "/api/autopay/run", nil)
	outcomes := decodeResponse(t, rec)["outcomes"].([]any)
	if len(outcomes) != 1 || outcomes[0].(map[string]any)["status"] != "skipped_insufficient_funds" {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}

	// Fund it, then pay manually.
	doJSON(t, s, http.MethodPost, "/api/accounts", map[string]string{"name": "Salary acct", "openingBalance": "1000.00"})
	rec = doJSON(t, s, http.MethodPost, "/api/recurring/"+id+"/pay", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/recurring", nil)
	items := decodeResponse(t, rec)["recurring"].([]any)
	o := items[0].(map[string]any)
	if o["occurrencesLeft"].(float64) != 11 || o["nextDue"].(string) != "2025-9" {
		t.Fatalf("unexpected obligation after pay: %v", o)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/recurring/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, "/api/recurring/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", rec.Code)
	}
}

func TestExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")
	doJSON(t, s, http.MethodPost, "/api/income", map[string]string{"description": "Salary", "amount": "500.00"})
	doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{"description": "Groceries", "category": "Food", "amount": "50.00"})

	rec := doJSON(t, s, http.MethodGet, "/api/export/month/current", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export month: status %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["exportType"] != "month_data" || body["monthLabel"] != "August 2025" {
		t.Fatalf("unexpected export payload: %v", body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/export/csv/current", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export csv: status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Date,Type,Description,Category,Amount,Account") {
		t.Fatalf("unexpected csv: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/export/backup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup: status %d", rec.Code)
	}
	backup := rec.Body.Bytes()

	// Round-trip: a fresh server restores the backup.
	s2 := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/restore", bytes.NewReader(backup))
	rec2 := httptest.NewRecorder()
	s2.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("restore: status %d body %s", rec2.Code, rec2.Body.String())
	}
	rec2b := doJSON(t, s2, http.MethodGet, "/api/months/current/summary", nil)
	if got := decodeResponse(t, rec2b)["income"].(float64); got != 500.0 {
		t.Fatalf("expected restored income 500, got %v", got)
	}
}

func TestExportSheetsUnconfigured(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")
	for _, key := range []string{"GOOGLE_SPREADSHEET_ID", "GOOGLE_SHEET_NAME", "GOOGLE_SERVICE_ACCOUNT_JSON"} {
		t.Setenv(key, "")
	}
	rec := doJSON(t, s, http.MethodPost, "/api/export/sheets/current", nil)
	if rec.Code != http.StatusServiceUnavailable || errorCode(t, rec) != "sheets_unavailable" {
		t.Fatalf("expected sheets_unavailable, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/restore", strings.NewReader(`{"accounts":[]}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "invalid_backup" {
		t.Fatalf("expected invalid_backup, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestResetEndpoint(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "100.00")

	rec := doJSON(t, s, http.MethodPost, "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/accounts", nil)
	if accounts := decodeResponse(t, rec)["accounts"].([]any); len(accounts) != 0 {
		t.Fatalf("expected no accounts after reset, got %d", len(accounts))
	}
}

func TestMonthDataUnknownSelector(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/months/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing X-Frame-Options")
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Checking", "")

	var limited bool
	for i := 0; i < 70; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/income", map[string]string{"amount": "1.00"})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected rate limiting to kick in")
	}

	// Reads stay unthrottled.
	rec := doJSON(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read should not be limited, got %d", rec.Code)
	}
}
