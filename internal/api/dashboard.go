package api

import (
	"encoding/json"
	"net/http"

	"github.com/finsight/finsight/internal/ledger"
)

func handleDashboardStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := ledger.Summarize(r.Context(), deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to summarize ledger: %v", err)
			return
		}
		if summary.TopCategories == nil {
			summary.TopCategories = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

func handleRecentTransactions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 10, 100)

		txns, err := deps.Store.ListTransactions(r.Context(), "", limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list transactions: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"transactions": toTransactionList(txns)})
	}
}
