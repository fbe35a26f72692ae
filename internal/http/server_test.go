package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	"cashbook/internal/ledger/memory"
	"cashbook/internal/services"
)

func newTestServer(t *testing.T, initialBalance string) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	if initialBalance != "" {
		if _, err := store.UpdateInitialBalance(context.Background(), decimal.RequireFromString(initialBalance)); err != nil {
			t.Fatalf("set initial balance: %v", err)
		}
	}

	ledgerSvc := services.NewLedgerService(store, nil)
	reportSvc := services.NewReportService(store)

	return NewServer("127.0.0.1:0", ledgerSvc, reportSvc, Options{}), store
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestCreateTransactionEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"receipt","amount":250.75,"address_name":"Al Noor Trading","description":"invoice 42"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transaction    core.Transaction `json:"transaction"`
		CurrentBalance decimal.Decimal  `json:"current_balance"`
	}
	decodeBody(t, rec, &resp)

	if resp.Transaction.ID == "" {
		t.Error("transaction id should be set")
	}
	if !strings.HasPrefix(resp.Transaction.ReferenceNumber, "REC-") {
		t.Errorf("reference = %q, want REC- prefix", resp.Transaction.ReferenceNumber)
	}
	if !resp.CurrentBalance.Equal(decimal.RequireFromString("250.75")) {
		t.Errorf("current balance = %s, want 250.75", resp.CurrentBalance)
	}
}

func TestCreateTransactionInsufficientBalance(t *testing.T) {
	s, _ := newTestServer(t, "100")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"payment","amount":150,"address_name":"Gulf Supplies"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)

	want := "Insufficient balance. Current balance: 100.00 AED"
	if resp.Error != want {
		t.Errorf("error = %q, want %q", resp.Error, want)
	}
}

func TestCreateTransactionValidationError(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"transfer","amount":10,"address_name":"X"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

func TestGetTransactionNotFoundEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodGet, "/api/transactions/no-such-id", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404; body: %s", rec.Code, rec.Body.String())
	}
}

func TestListTransactionsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	for i := 0; i < 3; i++ {
		rec := doRequest(t, s, http.MethodPost, "/api/transactions",
			`{"type":"receipt","amount":10,"address_name":"Al Noor Trading"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction status = %d", rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/transactions?page=1&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transactions []core.Transaction `json:"transactions"`
		Pagination   struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	decodeBody(t, rec, &resp)

	if len(resp.Transactions) != 2 {
		t.Errorf("page size = %d, want 2", len(resp.Transactions))
	}
	if resp.Pagination.Total != 3 || resp.Pagination.Pages != 2 {
		t.Errorf("pagination = %+v, want total 3 pages 2", resp.Pagination)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPut, "/api/settings/initial-balance", `{"initial_balance":500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}

	var resp struct {
		InitialBalance decimal.Decimal `json:"initial_balance"`
		CurrentBalance decimal.Decimal `json:"current_balance"`
	}
	decodeBody(t, rec, &resp)

	if !resp.InitialBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("initial balance = %s, want 500", resp.InitialBalance)
	}
	if !resp.CurrentBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("current balance = %s, want 500", resp.CurrentBalance)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/settings/initial-balance", `{"initial_balance":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative balance status = %d, want 400", rec.Code)
	}
}

func TestDailyReportEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"receipt","amount":75,"address_name":"Al Noor Trading"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed transaction status = %d", rec.Code)
	}

	// No date parameter defaults to today.
	rec = doRequest(t, s, http.MethodGet, "/api/reports/daily", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var report core.DailyReport
	decodeBody(t, rec, &report)

	if !report.TotalReceipts.Equal(decimal.RequireFromString("75")) {
		t.Errorf("total receipts = %s, want 75", report.TotalReceipts)
	}
	if report.TransactionCount != 1 {
		t.Errorf("transaction count = %d, want 1", report.TransactionCount)
	}
	if !report.ClosingBalance.Equal(decimal.RequireFromString("75")) {
		t.Errorf("closing balance = %s, want 75", report.ClosingBalance)
	}
}

func TestRangeReportEndpointRequiresDates(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodGet, "/api/reports/range?start_date=2024-05-01", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

func TestAddressEndpoints(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodPost, "/api/addresses",
		`{"name":"Gulf Supplies","type":"supplier","phone":"+971-4-5550100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created core.Address
	decodeBody(t, rec, &created)

	// First list populates the cache, the write below must invalidate it.
	rec = doRequest(t, s, http.MethodGet, "/api/addresses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/addresses/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/addresses", "")
	var listed []core.Address
	decodeBody(t, rec, &listed)
	if len(listed) != 0 {
		t.Errorf("active addresses after delete = %d, want 0", len(listed))
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "100")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var dash core.Dashboard
	decodeBody(t, rec, &dash)
	if !dash.CurrentBalance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("current balance = %s, want 100", dash.CurrentBalance)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	if rec := doRequest(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, "")
	defer s.Shutdown(context.Background())

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
