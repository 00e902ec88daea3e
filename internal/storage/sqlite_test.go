package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTransaction(amount string, category string) Transaction {
	amt, _ := decimal.NewFromString(amount)
	return Transaction{
		ID:         uuid.New().String(),
		OccurredAt: time.Now().UTC().Truncate(time.Second),
		Vendor:     "Test Vendor",
		Amount:     amt,
		Category:   category,
		Status:     "auto-approved",
		Source:     "manual",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestTransactionCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	txn := testTransaction("125.50", "Utilities")
	if err := s.SaveTransaction(ctx, txn); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(txn.Amount) {
		t.Errorf("amount round-trip: got %s, want %s", got.Amount, txn.Amount)
	}
	if got.Vendor != "Test Vendor" || got.Category != "Utilities" {
		t.Errorf("fields round-trip: %+v", got)
	}

	got.Category = "Rent"
	got.Status = "needs-review"
	if err := s.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := s.GetTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Category != "Rent" || updated.Status != "needs-review" {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := s.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, txn.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, txn.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Negative amounts are revenue.
	txns := []Transaction{
		testTransaction("-1000.00", "Revenue"),
		testTransaction("-500.25", "Revenue"),
		testTransaction("300.00", "Payroll"),
		testTransaction("200.00", "Payroll"),
		testTransaction("150.75", "Utilities"),
		testTransaction("90.00", "Marketing"),
	}
	if err := s.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("batch save: %v", err)
	}

	revenue, err := s.TotalRevenue(ctx)
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if want := decimal.RequireFromString("1500.25"); !revenue.Equal(want) {
		t.Errorf("revenue = %s, want %s", revenue, want)
	}

	expenses, err := s.TotalExpenses(ctx)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if want := decimal.RequireFromString("740.75"); !expenses.Equal(want) {
		t.Errorf("expenses = %s, want %s", expenses, want)
	}

	top, err := s.TopExpenseCategories(ctx, 3)
	if err != nil {
		t.Fatalf("top categories: %v", err)
	}
	want := []string{"Payroll", "Utilities", "Marketing"}
	if len(top) != len(want) {
		t.Fatalf("top categories = %v, want %v", top, want)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("top[%d] = %s, want %s", i, top[i], want[i])
		}
	}

	count, err := s.CountTransactions(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 6 {
		t.Errorf("count = %d, want 6", count)
	}
}

func TestListTransactionsFilterAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		txn := testTransaction("10.00", "Utilities")
		txn.OccurredAt = time.Now().UTC().Add(-time.Duration(i) * time.Hour)
		if err := s.SaveTransaction(ctx, txn); err != nil {
			t.Fatal(err)
		}
	}
	other := testTransaction("20.00", "Payroll")
	if err := s.SaveTransaction(ctx, other); err != nil {
		t.Fatal(err)
	}

	utilities, err := s.ListTransactions(ctx, "Utilities", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(utilities) != 5 {
		t.Errorf("filtered list = %d rows, want 5", len(utilities))
	}

	limited, err := s.ListTransactions(ctx, "", 3)
	if err != nil {
		t.Fatalf("limited list: %v", err)
	}
	if len(limited) != 3 {
		t.Errorf("limited list = %d rows, want 3", len(limited))
	}
	// Newest first.
	if len(limited) > 1 && limited[0].OccurredAt.Before(limited[1].OccurredAt) {
		t.Error("expected newest-first ordering")
	}
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	s := openTestStore(t)

	cats, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("listing categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("expected seeded categories")
	}
	if cats[0].Kind != "income" {
		t.Errorf("income categories should sort first, got %+v", cats[0])
	}
	found := false
	for _, c := range cats {
		if c.Name == "Payroll" && c.Kind == "expense" {
			found = true
		}
	}
	if !found {
		t.Error("expected a Payroll expense category")
	}
}

func TestConversationLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	conv := Conversation{ID: uuid.New().String(), Title: "Cash flow help", CreatedAt: now, UpdatedAt: now}
	opening := []Message{
		{ID: uuid.New().String(), Role: "user", Content: "What is cash flow?", CreatedAt: now},
		{ID: uuid.New().String(), Role: "assistant", Content: "Cash flow is...", CreatedAt: now},
	}
	if err := s.CreateConversation(ctx, conv, opening); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, msgs, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Cash flow help" || len(msgs) != 2 {
		t.Errorf("round-trip mismatch: %+v, %d messages", got, len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("message order wrong: %+v", msgs)
	}

	later := now.Add(time.Minute)
	followUp := []Message{
		{ID: uuid.New().String(), Role: "user", Content: "And profit?", CreatedAt: later},
		{ID: uuid.New().String(), Role: "assistant", Content: "Profit is...", CreatedAt: later},
	}
	if err := s.AppendMessages(ctx, conv.ID, followUp); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Both messages of each turn share a timestamp; insertion order must
	// still hold.
	_, msgs, err = s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get after append: %v", err)
	}
	wantContents := []string{"What is cash flow?", "Cash flow is...", "And profit?", "Profit is..."}
	if len(msgs) != len(wantContents) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(wantContents))
	}
	for i, want := range wantContents {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d].Content = %q, want %q", i, msgs[i].Content, want)
		}
	}

	summaries, err := s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].MessageCount != 4 {
		t.Errorf("message count = %d, want 4", summaries[0].MessageCount)
	}
	if summaries[0].LastMessage != "Profit is..." {
		t.Errorf("last message preview = %q", summaries[0].LastMessage)
	}
	if !summaries[0].UpdatedAt.After(summaries[0].CreatedAt) {
		t.Error("updated_at should advance on append")
	}

	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.GetConversation(ctx, conv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := s.AppendMessages(ctx, conv.ID, followUp); !errors.Is(err, ErrNotFound) {
		t.Errorf("append to deleted conversation should be ErrNotFound, got %v", err)
	}
}
