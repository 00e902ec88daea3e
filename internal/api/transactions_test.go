package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAndGetTransaction(t *testing.T) {
	h, _, _ := setupHandler(t)

	body := `{"occurred_at":"2026-03-15","vendor":"Sysco Boston","description":"weekly produce","amount":"250.75","category":"Inventory - Food & Supplies"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/v1/transactions/", body, testToken))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var created transactionJSON
	json.NewDecoder(rr.Body).Decode(&created)
	if created.ID == "" {
		t.Fatal("response missing id")
	}
	if created.Amount != "250.75" {
		t.Errorf("amount = %q, want 250.75", created.Amount)
	}
	if created.Status != "auto-approved" {
		t.Errorf("default status = %q, want auto-approved", created.Status)
	}
	if created.Source != "manual" {
		t.Errorf("source = %q, want manual", created.Source)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/transactions/"+created.ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	var fetched transactionJSON
	json.NewDecoder(rr.Body).Decode(&fetched)
	if fetched.Vendor != "Sysco Boston" || fetched.Amount != "250.75" {
		t.Errorf("fetched = %+v", fetched)
	}
	if fetched.OccurredAt.Year() != 2026 || int(fetched.OccurredAt.Month()) != 3 {
		t.Errorf("occurred_at = %v", fetched.OccurredAt)
	}
}

func TestCreateTransaction_AcceptsNumericAmount(t *testing.T) {
	h, _, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/api/v1/transactions/",
		`{"vendor":"Square Deposit","amount":-1204.55,"category":"Revenue"}`, testToken))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var created transactionJSON
	json.NewDecoder(rr.Body).Decode(&created)
	if created.Amount != "-1204.55" {
		t.Errorf("amount = %q, want -1204.55", created.Amount)
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	h, _, _ := setupHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing vendor", `{"amount":"10.00"}`},
		{"missing amount", `{"vendor":"Staples"}`},
		{"bad amount", `{"vendor":"Staples","amount":"ten dollars"}`},
		{"bad date", `{"vendor":"Staples","amount":"10.00","occurred_at":"03/15/2026"}`},
		{"bad status", `{"vendor":"Staples","amount":"10.00","status":"pending"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodPost, "/api/v1/transactions/", tc.body, testToken))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d; body = %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
		})
	}
}

func TestListTransactions_FilterAndLimit(t *testing.T) {
	h, store, _ := setupHandler(t)

	saveTestTransaction(t, store, "Con Edison", "300.00", "Utilities")
	saveTestTransaction(t, store, "National Grid", "200.00", "Utilities")
	saveTestTransaction(t, store, "ADP Payroll", "2500.00", "Payroll")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/transactions/?category=Utilities", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Transactions []transactionJSON `json:"transactions"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected 2 utilities, got %d", len(resp.Transactions))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/transactions/?limit=1", "", testToken))
	resp.Transactions = nil
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Transactions) != 1 {
		t.Fatalf("expected 1 with limit, got %d", len(resp.Transactions))
	}
}

func TestUpdateTransaction(t *testing.T) {
	h, store, _ := setupHandler(t)

	id := saveTestTransaction(t, store, "Staples", "89.99", "")

	body := `{"occurred_at":"2026-02-01","vendor":"Staples","amount":"89.99","category":"Office Supplies","status":"auto-approved"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/api/v1/transactions/"+id, body, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var updated transactionJSON
	json.NewDecoder(rr.Body).Decode(&updated)
	if updated.Category != "Office Supplies" {
		t.Errorf("category = %q, want Office Supplies", updated.Category)
	}
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	h, _, _ := setupHandler(t)

	body := `{"vendor":"Ghost","amount":"1.00"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/api/v1/transactions/missing", body, testToken))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteTransaction(t *testing.T) {
	h, store, _ := setupHandler(t)

	id := saveTestTransaction(t, store, "Cintas", "150.00", "Professional Fees")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/api/v1/transactions/"+id, "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/api/v1/transactions/"+id, "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListCategories_Seeded(t *testing.T) {
	h, _, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/categories", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Categories []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"categories"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Categories) != 9 {
		t.Fatalf("expected 9 seeded categories, got %d", len(resp.Categories))
	}
	if resp.Categories[0].Kind != "income" {
		t.Errorf("first category kind = %q, want income", resp.Categories[0].Kind)
	}
}

func TestDashboardStats(t *testing.T) {
	h, store, _ := setupHandler(t)

	saveTestTransaction(t, store, "Catering Event", "-4000.00", "Revenue")
	saveTestTransaction(t, store, "Square Payroll", "3000.00", "Payroll")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/dashboard/stats", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Revenue          float64  `json:"revenue"`
		Expenses         float64  `json:"expenses"`
		Profit           float64  `json:"profit"`
		ProfitMargin     float64  `json:"profit_margin"`
		TopCategories    []string `json:"top_categories"`
		TransactionCount int      `json:"transaction_count"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Revenue != 4000 || resp.Expenses != 3000 || resp.Profit != 1000 {
		t.Errorf("totals wrong: %+v", resp)
	}
	if resp.ProfitMargin != 25 {
		t.Errorf("margin = %v, want 25", resp.ProfitMargin)
	}
	if resp.TransactionCount != 2 {
		t.Errorf("count = %d, want 2", resp.TransactionCount)
	}
	if len(resp.TopCategories) != 1 || resp.TopCategories[0] != "Payroll" {
		t.Errorf("top categories = %v", resp.TopCategories)
	}
}

func TestRecentTransactions(t *testing.T) {
	h, store, _ := setupHandler(t)

	for i := 0; i < 12; i++ {
		saveTestTransaction(t, store, "Takeout Orders", "-50.00", "Revenue")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/api/v1/dashboard/recent-transactions", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Transactions []transactionJSON `json:"transactions"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Transactions) != 10 {
		t.Errorf("expected default limit of 10, got %d", len(resp.Transactions))
	}
}

func TestImportStatement_MissingFile(t *testing.T) {
	h, _, _ := setupHandler(t)

	rr := httptest.NewRecorder()
	req := authReq(http.MethodPost, "/api/v1/transactions/import", "not a form", testToken)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestImportStatement_RejectsUnparseableUpload(t *testing.T) {
	h, _, _ := setupHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "statement.pdf")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("this is not a pdf"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/import", &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
}
