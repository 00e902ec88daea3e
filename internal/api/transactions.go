package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight/internal/importer"
	"github.com/finsight/finsight/internal/storage"
)

const maxImportBodySize = 10 << 20 // 10MB

type transactionRequest struct {
	OccurredAt  string `json:"occurred_at"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
	// Amount accepts both a JSON number and a string; strings avoid float
	// precision loss in clients that care.
	Amount   json.RawMessage `json:"amount"`
	Category string          `json:"category"`
	Status   string          `json:"status"`
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if len(s) > 0 && s[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return decimal.NewFromString(s)
}

// parseTransaction validates a request body into a transaction, leaving ID,
// Source, and CreatedAt for the caller.
func parseTransaction(req transactionRequest) (storage.Transaction, string) {
	if strings.TrimSpace(req.Vendor) == "" {
		return storage.Transaction{}, "vendor is required"
	}
	if len(req.Amount) == 0 {
		return storage.Transaction{}, "amount is required"
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return storage.Transaction{}, "invalid amount"
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != "" {
		occurredAt, err = parseDate(req.OccurredAt)
		if err != nil {
			return storage.Transaction{}, "invalid occurred_at: use RFC 3339 or YYYY-MM-DD"
		}
	}

	status := req.Status
	if status == "" {
		status = "auto-approved"
	}
	if status != "auto-approved" && status != "needs-review" {
		return storage.Transaction{}, "status must be auto-approved or needs-review"
	}

	return storage.Transaction{
		OccurredAt:  occurredAt,
		Vendor:      strings.TrimSpace(req.Vendor),
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(req.Category),
		Status:      status,
	}, ""
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func handleListTransactions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		limit := parseIntParam(r, "limit", 0, 1000)

		txns, err := deps.Store.ListTransactions(r.Context(), category, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list transactions: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"transactions": toTransactionList(txns)})
	}
}

func handleCreateTransaction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		t, problem := parseTransaction(req)
		if problem != "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", problem)
			return
		}
		t.ID = uuid.New().String()
		t.Source = "manual"
		t.CreatedAt = time.Now().UTC()

		if err := deps.Store.SaveTransaction(r.Context(), t); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save transaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(toTransactionJSON(t))
	}
}

func handleGetTransaction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		t, err := deps.Store.GetTransaction(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "transaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get transaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toTransactionJSON(t))
	}
}

func handleUpdateTransaction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		id := chi.URLParam(r, "id")

		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		t, problem := parseTransaction(req)
		if problem != "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", problem)
			return
		}
		t.ID = id

		err := deps.Store.UpdateTransaction(r.Context(), t)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "transaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update transaction: %v", err)
			return
		}

		updated, err := deps.Store.GetTransaction(r.Context(), id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to reload transaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toTransactionJSON(updated))
	}
}

func handleDeleteTransaction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteTransaction(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "transaction not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete transaction: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// handleImportStatement accepts a bank-statement PDF as a multipart upload
// under the "file" field, parses its transaction lines, and records them as
// needs-review entries.
func handleImportStatement(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		file, _, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file field is required: %v", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to read upload: %v", err)
			return
		}

		lines, err := importer.ParseStatement(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "failed to parse statement: %v", err)
			return
		}

		now := time.Now().UTC()
		txns := make([]storage.Transaction, len(lines))
		for i, line := range lines {
			category := ""
			if line.Amount.IsNegative() {
				category = "Revenue"
			}
			txns[i] = storage.Transaction{
				ID:          uuid.New().String(),
				OccurredAt:  line.Date.UTC(),
				Vendor:      line.Description,
				Description: line.Description,
				Amount:      line.Amount,
				Category:    category,
				Status:      "needs-review",
				Source:      "import",
				CreatedAt:   now,
			}
		}
		if err := deps.Store.SaveTransactions(r.Context(), txns); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save transactions: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"imported":     len(txns),
			"transactions": toTransactionList(txns),
		})
	}
}

func handleListCategories(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := deps.Store.ListCategories(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list categories: %v", err)
			return
		}

		type categoryJSON struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Kind string `json:"kind"`
		}
		result := make([]categoryJSON, len(categories))
		for i, c := range categories {
			result[i] = categoryJSON{ID: c.ID, Name: c.Name, Kind: c.Kind}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"categories": result})
	}
}
