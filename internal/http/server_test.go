package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/store/memory"
	"ledger/internal/summary"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard, Format: "text", Component: "test"})
}

func newTestServer(t *testing.T) (*Server, *services.LedgerService) {
	t.Helper()
	svc := services.NewLedgerService(memory.New(), nil)
	srv := NewServer(Config{Addr: ":0", CORSOrigin: "http://localhost:3000"}, svc, testLogger())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

const fridge = `{"date":"2024-01-15","kind":"Expense","category":"BasicExpense","subcategory":"Housing","payment_method":"CreditCard","amount":300,"note":"fridge","installment_count":3}`

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rr.Code)
	}
}

func TestCatalog(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/catalog", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	cat := decode[struct {
		Kinds         []string            `json:"kinds"`
		Subcategories map[string][]string `json:"subcategories"`
	}](t, rr)
	if len(cat.Kinds) != 2 {
		t.Errorf("kinds = %v", cat.Kinds)
	}
	if got := cat.Subcategories["Savings"]; len(got) != 3 {
		t.Errorf("Savings subcategories = %v", got)
	}
}

func TestCreateTransaction_Installments(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions", fridge)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	rows := decode[[]transactionResponse](t, rr)
	if len(rows) != 3 {
		t.Fatalf("created %d rows, want 3", len(rows))
	}
	wantDates := []string{"2024-01-15", "2024-02-15", "2024-03-15"}
	for i, row := range rows {
		if row.Date != wantDates[i] {
			t.Errorf("row %d date = %s, want %s", i, row.Date, wantDates[i])
		}
		if row.Amount != 100 {
			t.Errorf("row %d amount = %v, want 100", i, row.Amount)
		}
		if row.InstallmentCount != 3 {
			t.Errorf("row %d installment_count = %d", i, row.InstallmentCount)
		}
	}
	if rows[1].Note != "fridge (2/3)" {
		t.Errorf("note = %q", rows[1].Note)
	}

	list := decode[[]transactionResponse](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	if len(list) != 3 || list[0].Date != "2024-03-15" {
		t.Errorf("list should be newest first, got %+v", list)
	}
}

func TestCreateTransaction_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"malformed json", `{"date":`, http.StatusBadRequest, ""},
		{"empty body object list", `[]`, http.StatusBadRequest, ""},
		{"trailing data", fridge + `{}`, http.StatusBadRequest, ""},
		{"missing fields", `{"date":"2024-01-15"}`, http.StatusUnprocessableEntity, ""},
		{"bad category", strings.Replace(fridge, "BasicExpense", "Luxury", 1), http.StatusUnprocessableEntity, "category"},
		{"subcategory of another category", strings.Replace(fridge, "Housing", "Crypto", 1), http.StatusUnprocessableEntity, "subcategory"},
		{"negative amount", strings.Replace(fridge, `"amount":300`, `"amount":-5`, 1), http.StatusUnprocessableEntity, "amount"},
		{"too many installments", strings.Replace(fridge, `"installment_count":3`, `"installment_count":37`, 1), http.StatusUnprocessableEntity, "installment_count"},
		{"bad date", strings.Replace(fridge, "2024-01-15", "15/01/2024", 1), http.StatusUnprocessableEntity, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			resp := decode[errorResponse](t, rr)
			if resp.Message == "" {
				t.Error("error response without message")
			}
			if tt.wantField != "" && resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestCreateTransaction_StringAmount(t *testing.T) {
	srv, _ := newTestServer(t)
	body := strings.Replace(fridge, `"amount":300`, `"amount":"99,90"`, 1)
	body = strings.Replace(body, `"installment_count":3`, `"installment_count":"1"`, 1)

	rr := do(t, srv, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	rows := decode[[]transactionResponse](t, rr)
	if len(rows) != 1 || rows[0].Amount != 99.9 || rows[0].Note != "fridge" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCreateTransaction_WrongContentType(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(fridge))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rr.Code)
	}
}

func TestBulkImport(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `[
		{"date":"2024-01-05","kind":"Income","category":"Income","subcategory":"Salary","payment_method":"BankTransfer","amount":"1000"},
		{"date":"2024-01-10","kind":"Expense","category":"BasicExpense","subcategory":"Supermarket","payment_method":"DebitCard","amount":250.5,"installment_count":3},
		{"date":"2024-01-12","kind":"Expense","category":"Luxury","subcategory":"Yacht","payment_method":"DebitCard","amount":10}
	]`

	rr := do(t, srv, http.MethodPost, "/api/transactions/bulk", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	res := decode[importResponse](t, rr)
	if res.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", res.Inserted)
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "row 3: ") {
		t.Errorf("errors = %v, want one entry for row 3", res.Errors)
	}

	list := decode[[]transactionResponse](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	if len(list) != 2 {
		t.Fatalf("bulk rows are stored verbatim, got %d rows", len(list))
	}
}

func TestBulkImport_MalformedRows(t *testing.T) {
	good := `{"date":"2024-01-05","kind":"Income","category":"Income","subcategory":"Salary","payment_method":"BankTransfer","amount":"1000"}`
	tests := []struct {
		name string
		bad  string
	}{
		{"numeric date", `{"date":20240115,"kind":"Expense","category":"WantExpense","subcategory":"Other","payment_method":"DebitCard","amount":5}`},
		{"numeric kind", `{"date":"2024-01-15","kind":1,"category":"WantExpense","subcategory":"Other","payment_method":"DebitCard","amount":5}`},
		{"array kind", `{"date":"2024-01-15","kind":["Expense"],"category":"WantExpense","subcategory":"Other","payment_method":"DebitCard","amount":5}`},
		{"null element", `null`},
		{"string element", `"not an object"`},
		{"number element", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			body := "[" + good + "," + good + "," + tt.bad + "]"

			rr := do(t, srv, http.MethodPost, "/api/transactions/bulk", body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
			}
			res := decode[importResponse](t, rr)
			if res.Inserted != 2 {
				t.Errorf("inserted = %d, want 2", res.Inserted)
			}
			if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "row 3: ") {
				t.Errorf("errors = %v, want one entry for row 3", res.Errors)
			}
		})
	}
}

func TestBulkImport_NotAnArray(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := do(t, srv, http.MethodPost, "/api/transactions/bulk", fridge); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestListTransactions_Range(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/transactions", fridge)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantRows   int
	}{
		{"inclusive range", "?start=2024-02-01&end=2024-03-15", http.StatusOK, 2},
		{"single day", "?start=2024-01-15&end=2024-01-15", http.StatusOK, 1},
		{"only start", "?start=2024-01-01", http.StatusBadRequest, 0},
		{"bad date", "?start=2024-13-01&end=2024-12-01", http.StatusBadRequest, 0},
		{"inverted", "?start=2024-03-01&end=2024-01-01", http.StatusUnprocessableEntity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/transactions"+tt.query, "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if rows := decode[[]transactionResponse](t, rr); len(rows) != tt.wantRows {
					t.Errorf("rows = %d, want %d", len(rows), tt.wantRows)
				}
			}
		})
	}
}

func seedLedger(t *testing.T, svc *services.LedgerService) {
	t.Helper()
	drafts := []core.Draft{
		{Date: "2024-01-05", Kind: "Income", Category: "Income", Subcategory: "Salary", PaymentMethod: "BankTransfer", Amount: "1000"},
		{Date: "2024-01-10", Kind: "Expense", Category: "BasicExpense", Subcategory: "Supermarket", PaymentMethod: "DebitCard", Amount: "450"},
		{Date: "2024-01-11", Kind: "Expense", Category: "WantExpense", Subcategory: "Delivery", PaymentMethod: "MercadoPago", Amount: "200"},
		{Date: "2024-01-20", Kind: "Expense", Category: "Savings", Subcategory: "Account", PaymentMethod: "BankTransfer", Amount: "100"},
		{Date: "2024-02-02", Kind: "Expense", Category: "BasicExpense", Subcategory: "Utilities", PaymentMethod: "CreditCard", Amount: "80"},
	}
	res, err := svc.Import(context.Background(), drafts)
	if err != nil || res.Inserted != len(drafts) {
		t.Fatalf("seed: %+v %v", res, err)
	}
}

func TestMonthlySummary(t *testing.T) {
	srv, svc := newTestServer(t)
	seedLedger(t, svc)

	rr := do(t, srv, http.MethodGet, "/api/summary/monthly", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	rows := decode[[]summaryRowResponse](t, rr)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 2 months plus Total", len(rows))
	}
	if rows[0].Year+"-"+rows[0].MonthNumber != "2024-02" || rows[2].Year != summary.TotalLabel {
		t.Errorf("order = %s-%s, %s", rows[0].Year, rows[0].MonthNumber, rows[2].Year)
	}
	jan := rows[1]
	if jan.BasicBudget != 600 || jan.BasicPct != 45 || jan.WantPct != 20 || jan.SavingsPct != 10 {
		t.Errorf("january = %+v", jan)
	}
	if jan.Balance != 250 || jan.BalanceSymbol != summary.BalanceUp {
		t.Errorf("january balance = %v %s", jan.Balance, jan.BalanceSymbol)
	}
	if feb := rows[0]; feb.BasicPct != 0 || feb.BalanceSymbol != summary.BalanceDown {
		t.Errorf("february without income = %+v", feb)
	}
}

func TestBreakdownEndpoints(t *testing.T) {
	srv, svc := newTestServer(t)
	seedLedger(t, svc)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCats   []string
	}{
		{"expense kind", "/api/breakdown?month=2024-01&kind=Expense", http.StatusOK, []string{"BasicExpense", "Savings", "WantExpense"}},
		{"income kind", "/api/breakdown?month=2024-01&kind=Income", http.StatusOK, []string{"Income"}},
		{"income view", "/api/breakdown/income?month=2024-01", http.StatusOK, []string{"Income", "Savings"}},
		{"expense view", "/api/breakdown/expense?month=2024-01", http.StatusOK, []string{"BasicExpense", "WantExpense"}},
		{"empty month", "/api/breakdown/expense?month=2023-05", http.StatusOK, []string{}},
		{"missing month", "/api/breakdown/income", http.StatusBadRequest, nil},
		{"bad month", "/api/breakdown/income?month=2024-1", http.StatusBadRequest, nil},
		{"missing kind", "/api/breakdown?month=2024-01", http.StatusBadRequest, nil},
		{"bad kind", "/api/breakdown?month=2024-01&kind=Transfer", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tt.path, "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantCats == nil {
				return
			}
			groups := decode[[]breakdownResponse](t, rr)
			got := make([]string, len(groups))
			for i, g := range groups {
				got[i] = g.Category
			}
			if strings.Join(got, ",") != strings.Join(tt.wantCats, ",") {
				t.Errorf("categories = %v, want %v", got, tt.wantCats)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	srv, svc := newTestServer(t)
	seedLedger(t, svc)

	d := decode[dashboardResponse](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if len(d.Expenses) != 3 || d.Expenses[0].Category != "BasicExpense" || d.Expenses[0].Total != 530 {
		t.Errorf("expenses = %+v", d.Expenses)
	}
	if len(d.Income) != 1 || d.Income[0].Month != "2024-01" || d.Income[0].Total != 1000 {
		t.Errorf("income = %+v", d.Income)
	}
}

func TestReports(t *testing.T) {
	srv, svc := newTestServer(t)

	if rr := do(t, srv, http.MethodGet, "/api/reports/summary.png", ""); rr.Code != http.StatusNotFound {
		t.Errorf("chart of empty ledger status = %d, want 404", rr.Code)
	}

	seedLedger(t, svc)
	pdf := do(t, srv, http.MethodGet, "/api/reports/summary.pdf", "")
	if pdf.Code != http.StatusOK || pdf.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf = %d %s", pdf.Code, pdf.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF-")) {
		t.Error("pdf body lacks the PDF magic")
	}

	png := do(t, srv, http.MethodGet, "/api/reports/summary.png", "")
	if png.Code != http.StatusOK || png.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png = %d %s", png.Code, png.Header().Get("Content-Type"))
	}
}

// brokenLedger fails every read like an unreachable database.
type brokenLedger struct {
	Ledger
}

var errDiskGone = &core.StoreError{Op: "list transactions", Err: errors.New("unable to open database file")}

func (brokenLedger) List(context.Context) ([]core.Transaction, error) { return nil, errDiskGone }
func (brokenLedger) MonthlySummary(context.Context) ([]summary.Row, error) {
	return nil, errDiskGone
}
func (brokenLedger) Ready(context.Context) error { return errDiskGone }

func TestStoreFailuresAreGeneric(t *testing.T) {
	svc := services.NewLedgerService(memory.New(), nil)
	srv := NewServer(Config{Addr: ":0"}, brokenLedger{Ledger: svc}, testLogger())
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/api/transactions", "/api/summary/monthly", "/api/reports/summary.pdf"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "database file") {
			t.Errorf("%s leaks the store error: %s", path, rr.Body.String())
		}
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rr.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	svc := services.NewLedgerService(memory.New(), nil)
	srv := NewServer(Config{Addr: ":0", RateLimitPerMinute: 1}, svc, testLogger())
	defer srv.Shutdown(context.Background())

	if rr := do(t, srv, http.MethodPost, "/api/transactions", fridge); rr.Code != http.StatusCreated {
		t.Fatalf("first post = %d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions", fridge)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second post = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if rr := do(t, srv, http.MethodGet, "/api/transactions", ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not limited, got %d", rr.Code)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := do(t, srv, http.MethodGet, "/api/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path = %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/transactions", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE = %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}
