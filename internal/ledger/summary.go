// Package ledger computes financial summaries over the transaction store,
// feeding both the dashboard and the assistant's context block.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/finsight/finsight/internal/assist"
)

// Store is the slice of the storage layer the summarizer needs.
type Store interface {
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	TotalExpenses(ctx context.Context) (decimal.Decimal, error)
	TopExpenseCategories(ctx context.Context, n int) ([]string, error)
	CountTransactions(ctx context.Context) (int, error)
}

// Summary is an aggregate view of the books.
type Summary struct {
	Revenue          float64  `json:"revenue"`
	Expenses         float64  `json:"expenses"`
	Profit           float64  `json:"profit"`
	ProfitMargin     float64  `json:"profit_margin"`
	TopCategories    []string `json:"top_categories"`
	TransactionCount int      `json:"transaction_count"`
}

// Summarize runs the four aggregations concurrently and folds the results.
func Summarize(ctx context.Context, store Store) (Summary, error) {
	var (
		revenue, expenses decimal.Decimal
		topCategories     []string
		count             int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = store.TotalRevenue(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = store.TotalExpenses(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		topCategories, err = store.TopExpenseCategories(gCtx, 3)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = store.CountTransactions(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("summarizing ledger: %w", err)
	}

	profit := revenue.Sub(expenses)
	s := Summary{
		Revenue:          revenue.InexactFloat64(),
		Expenses:         expenses.InexactFloat64(),
		Profit:           profit.InexactFloat64(),
		TopCategories:    topCategories,
		TransactionCount: count,
	}
	if revenue.IsPositive() {
		s.ProfitMargin = profit.Div(revenue).InexactFloat64() * 100
	}
	return s, nil
}

// FinancialContext converts the summary into the assistant's context input.
func (s Summary) FinancialContext() *assist.FinancialContext {
	revenue, expenses, profit := s.Revenue, s.Expenses, s.Profit
	count := s.TransactionCount
	return &assist.FinancialContext{
		Revenue:          &revenue,
		Expenses:         &expenses,
		Profit:           &profit,
		TopCategories:    s.TopCategories,
		TransactionCount: &count,
	}
}
