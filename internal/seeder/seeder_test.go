package seeder

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/finsight/finsight/internal/storage"
)

func TestGenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Now()

	txns := Generate(100, now, rng)
	if len(txns) != 100 {
		t.Fatalf("expected 100 transactions, got %d", len(txns))
	}

	revenue, expenses := 0, 0
	for _, txn := range txns {
		if txn.ID == "" || txn.Vendor == "" || txn.Category == "" {
			t.Fatalf("incomplete transaction: %+v", txn)
		}
		if txn.OccurredAt.After(now) || txn.OccurredAt.Before(now.Add(-31*24*time.Hour)) {
			t.Errorf("occurred_at outside the 30-day window: %v", txn.OccurredAt)
		}
		if txn.Source != "seed" {
			t.Errorf("source = %q, want seed", txn.Source)
		}
		if txn.Amount.IsNegative() {
			revenue++
			if txn.Category != "Revenue" {
				t.Errorf("negative amount with category %q", txn.Category)
			}
		} else {
			expenses++
			if txn.Category == "Revenue" {
				t.Errorf("positive amount categorized as Revenue")
			}
		}
	}
	if revenue == 0 || expenses == 0 {
		t.Errorf("expected a mix of revenue and expenses, got %d/%d", revenue, expenses)
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	a := Generate(10, now, rand.New(rand.NewSource(7)))
	b := Generate(10, now, rand.New(rand.NewSource(7)))
	for i := range a {
		if a[i].Vendor != b[i].Vendor || !a[i].Amount.Equal(b[i].Amount) {
			t.Fatalf("generation not deterministic at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSeed(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	n, err := Seed(context.Background(), store, 25, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 25 {
		t.Errorf("seeded %d, want 25", n)
	}

	count, err := store.CountTransactions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 25 {
		t.Errorf("store has %d transactions, want 25", count)
	}
}
