// Package api implements the REST surface of the finsight server: the
// assistant chat endpoints, the transaction ledger, and the dashboard
// aggregates.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finsight/finsight/internal/assist"
	"github.com/finsight/finsight/internal/ledger"
	"github.com/finsight/finsight/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Assistant is the slice of the assist service the handlers need.
type Assistant interface {
	GenerateResponse(ctx context.Context, userMessage string, history []assist.Turn, data *assist.FinancialContext) string
	CacheStats() assist.CacheStats
	RateLimitStatus() assist.RateLimitStatus
}

type Deps struct {
	Store     *storage.Store
	Assistant Assistant
	Token     string
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Route("/ai-chat", func(r chi.Router) {
			r.Post("/conversations", handleCreateConversation(deps))
			r.Get("/conversations", handleListConversations(deps))
			r.Get("/conversations/{id}", handleGetConversation(deps))
			r.Delete("/conversations/{id}", handleDeleteConversation(deps))
			r.Post("/conversations/{id}/messages", handleAddMessage(deps))
			r.Post("/quick-query", handleQuickQuery(deps))
			r.Get("/sample-prompts", handleSamplePrompts)
			r.Get("/cache-stats", handleCacheStats(deps))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", handleListTransactions(deps))
			r.Post("/", handleCreateTransaction(deps))
			r.Post("/import", handleImportStatement(deps))
			r.Get("/{id}", handleGetTransaction(deps))
			r.Put("/{id}", handleUpdateTransaction(deps))
			r.Delete("/{id}", handleDeleteTransaction(deps))
		})

		r.Get("/categories", handleListCategories(deps))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", handleDashboardStats(deps))
			r.Get("/recent-transactions", handleRecentTransactions(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// financialContext summarizes the books for the assistant. A failed or empty
// summary degrades to nil: the assistant answers generically rather than the
// request failing.
func financialContext(ctx context.Context, store *storage.Store) *assist.FinancialContext {
	summary, err := ledger.Summarize(ctx, store)
	if err != nil {
		slog.Warn("financial summary unavailable", "error", err)
		return nil
	}
	if summary.TransactionCount == 0 {
		return nil
	}
	return summary.FinancialContext()
}

type messageJSON struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type transactionJSON struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Vendor      string    `json:"vendor"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
}

func toMessageJSON(m storage.Message) messageJSON {
	return messageJSON{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}

func toTransactionJSON(t storage.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		OccurredAt:  t.OccurredAt,
		Vendor:      t.Vendor,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Status:      t.Status,
		Source:      t.Source,
	}
}

func toTransactionList(txns []storage.Transaction) []transactionJSON {
	result := make([]transactionJSON, len(txns))
	for i, t := range txns {
		result[i] = toTransactionJSON(t)
	}
	return result
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
