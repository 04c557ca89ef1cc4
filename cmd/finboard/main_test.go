package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finboard/internal/core"
)

// fakeAPI is a minimal backend for end-to-end command tests.
type fakeAPI struct {
	mu          sync.Mutex
	roles       []string
	departments []string
	revoked     int
	created     map[string]any
}

func (f *fakeAPI) user() map[string]any {
	return map[string]any{
		"_id":         "u1",
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"email":       "ada@example.com",
		"is_verified": true,
		"roles":       f.roles,
		"company":     map[string]any{"id": "c1", "name": "Acme", "departments": f.departments},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"message": "Invalid email or password"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"token": "tok-1", "user": f.user()})
	})
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"data": map[string]any{"user": f.user()}})
	})
	mux.HandleFunc("DELETE /api/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.revoked++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"message": "Registered, please verify your email"})
	})
	mux.HandleFunc("PUT /api/companies/c1", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Departments []string `json:"departments"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.departments = body.Departments
		f.mu.Unlock()
		writeJSON(w, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			writeJSON(w, map[string]any{"data": []any{}})
			return
		}
		writeJSON(w, map[string]any{"data": []map[string]any{
			{"_id": "t1", "name": "Sale", "amount": 300, "type": "income", "department": "Sales", "transactionDate": "2025-01-10"},
			{"_id": "t2", "name": "Rent", "amount": "100", "type": "expense", "department": "Ops", "transaction_date": "2025-02-01", "isLocked": true},
			{"_id": "t9", "name": "Misc", "amount": 5, "type": "expense", "department": "Ops", "transactionDate": "someday"},
		}})
	})
	mux.HandleFunc("POST /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = body
		f.mu.Unlock()
		body["_id"] = "t3"
		writeJSON(w, map[string]any{"data": body})
	})
	mux.HandleFunc("GET /api/reports", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": []map[string]any{
			{"_id": "r1", "title": "Quarterly results", "type": "pdf", "upload_date": "2025-03-01"},
			{"_id": "r2", "title": "Office closed Friday", "type": "text", "content": "Holiday"},
		}})
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"data": []map[string]any{f.user(), {"_id": "u2", "email": "bob@example.com", "roles": []string{"member"}}}})
	})
	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	return mux
}

type harness struct {
	api *fakeAPI
	dir string
}

func newHarness(t *testing.T, roles ...string) *harness {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	h := &harness{
		api: &fakeAPI{roles: roles, departments: []string{"Sales", "Ops"}},
		dir: t.TempDir(),
	}
	srv := httptest.NewServer(h.api.handler())
	t.Cleanup(srv.Close)

	t.Setenv("API_BASE_URL", srv.URL+"/api")
	t.Setenv("SESSION_DB_PATH", filepath.Join(h.dir, "session.db"))
	t.Setenv("SESSION_SCOPE_ID", "tab:test")
	t.Setenv("TZ", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("EXPORT_BACKEND", "memory")
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := run(args, strings.NewReader(stdin), stdout, stderr)
	return stdout.String(), err
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	out, err := h.run(t, "", "login", "-email", "ada@example.com", "-password", "secret")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Ada Lovelace")
}

func TestRun_Usage(t *testing.T) {
	err := run(nil, strings.NewReader(""), new(bytes.Buffer), new(bytes.Buffer))
	assert.ErrorIs(t, err, errUsage)

	stdout := new(bytes.Buffer)
	require.NoError(t, run([]string{"help"}, strings.NewReader(""), stdout, new(bytes.Buffer)))
	assert.Contains(t, stdout.String(), "transactions")

	err = run([]string{"frobnicate"}, strings.NewReader(""), new(bytes.Buffer), new(bytes.Buffer))
	assert.ErrorContains(t, err, `unknown command "frobnicate"`)
}

func TestRun_LoginPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "anonymous\n", out)

	h.login(t)

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "Sales, Ops")
	assert.Contains(t, out, "tab")

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)
	assert.Equal(t, 1, h.api.revoked)

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "anonymous\n", out)
}

func TestRun_LoginPromptsForPassword(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "ada@example.com\nsecret\n", "login", "-remember")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Password: ")

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "durable")
}

func TestRun_LoginFailureKeepsBackendMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "login", "-email", "ada@example.com", "-password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
}

func TestRun_GuardRequiresSignIn(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "guard", "-path", "/app/members")
	require.NoError(t, err)
	assert.Equal(t, "redirect /app/login\n", out)

	_, err = h.run(t, "", "report")
	assert.ErrorContains(t, err, "requires sign in")
}

func TestRun_GuardByRole(t *testing.T) {
	h := newHarness(t, "member")
	h.login(t)

	out, err := h.run(t, "", "guard", "-path", "/app/transactions")
	require.NoError(t, err)
	assert.Equal(t, "allow /app/transactions\n", out)

	out, err = h.run(t, "", "guard", "-path", "/app/members")
	require.NoError(t, err)
	assert.Equal(t, "redirect /app/dashboard\n", out)

	_, err = h.run(t, "", "members")
	assert.ErrorContains(t, err, "not available for your role")

	_, err = h.run(t, "", "transactions", "-add", "-name", "x", "-amount", "1", "-type", "income")
	assert.ErrorContains(t, err, "not available for your role")
}

func TestRun_Report(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, err := h.run(t, "", "report", "-year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "Net profit")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "Jan")
	assert.Contains(t, out, "Recent")
	assert.Contains(t, out, "Notices")

	_, err = h.run(t, "", "report", "-by", "weekly")
	assert.ErrorContains(t, err, "unknown granularity")
}

func TestRun_ExportXLSX(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "out", "report.xlsx")
	t.Setenv("EXPORT_BACKEND", "xlsx")
	t.Setenv("EXPORT_XLSX_PATH", path)
	h.login(t)

	out, err := h.run(t, "", "export", "-year", "2025")
	require.NoError(t, err)
	assert.Equal(t, "Exported 2 transactions to "+path+"\n", out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Granularity", v)
}

func TestRun_Transactions(t *testing.T) {
	h := newHarness(t, "manager")
	h.login(t)

	out, err := h.run(t, "", "transactions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "t2")
	assert.Contains(t, lines[2], "t1")
	assert.Contains(t, lines[3], "t9")
	assert.NotContains(t, lines[3], "0001-01-01")

	out, err = h.run(t, "", "transactions", "-add", "-date", "2025-03-05", "-name", "Coffee",
		"-amount", "4.50", "-type", "Expense", "-comment", "team", "-department", "Ops")
	require.NoError(t, err)
	assert.Contains(t, out, "Added expense Coffee")
	assert.Equal(t, "Coffee", h.api.created["name"])
	assert.Equal(t, 4.5, h.api.created["amount"])

	_, err = h.run(t, "", "transactions", "-add", "-date", "2025-03-05", "-name", "Coffee",
		"-amount", "100abc", "-type", "expense", "-comment", "team", "-department", "Ops")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = h.run(t, "", "transactions", "-delete", "t2")
	assert.ErrorContains(t, err, "locked")

	_, err = h.run(t, "", "transactions", "-delete", "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestRun_Departments(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, err := h.run(t, "", "departments")
	require.NoError(t, err)
	assert.Equal(t, "Sales\nOps\n", out)

	out, err = h.run(t, "", "departments", "-set", " Sales, HR ,hr,,Legal")
	require.NoError(t, err)
	assert.Equal(t, "Saved 3 departments\nSales\nHR\nLegal\n", out)

	out, err = h.run(t, "", "departments")
	require.NoError(t, err)
	assert.Equal(t, "Sales\nHR\nLegal\n", out)
}

func TestRun_NoticesAndMembers(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, err := h.run(t, "", "notices", "-search", "quarter")
	require.NoError(t, err)
	assert.Contains(t, out, "Quarterly results")
	assert.NotContains(t, out, "Office closed")

	out, err = h.run(t, "", "members")
	require.NoError(t, err)
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "member")
}

func TestRun_Settings(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, err := h.run(t, "", "settings", "-theme", "light", "-currency", "eur", "-compact", "on")
	require.NoError(t, err)
	assert.Contains(t, out, "light")
	assert.Contains(t, out, "EUR")

	out, err = h.run(t, "", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "light")

	_, err = h.run(t, "", "settings", "-compact", "maybe")
	assert.ErrorContains(t, err, "expected on or off")
}

func TestRun_SignupPasswordMismatch(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "signup", "-first", "Ada", "-last", "L", "-company", "Acme", "-country", "CI",
		"-phone", "+225000", "-email", "ada@example.com", "-password", "secret123", "-confirm", "other")
	assert.ErrorContains(t, err, "passwords do not match")

	out, err := h.run(t, "", "signup", "-first", "Ada", "-last", "L", "-company", "Acme", "-country", "CI",
		"-phone", "+225000", "-email", "ada@example.com", "-password", "secret123", "-confirm", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered")
}

func TestRun_EventsDisabled(t *testing.T) {
	newHarness(t)
	err := run([]string{"events"}, strings.NewReader(""), new(bytes.Buffer), new(bytes.Buffer))
	assert.ErrorContains(t, err, "session events are disabled")
}
