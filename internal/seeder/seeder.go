// Package seeder generates plausible sample transactions so a fresh install
// has books worth asking the assistant about.
package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight/internal/storage"
)

var revenueVendors = []string{
	"Daily Coffee Sales", "Lunch Service", "Dinner Service", "Catering Event",
	"Weekend Brunch", "Happy Hour", "Private Party", "Takeout Orders",
	"Online Order", "Website Payment", "Gift Card Sale",
}

type expenseVendor struct {
	name     string
	category string
	min, max float64
}

var expenseVendors = []expenseVendor{
	{"Con Edison", "Utilities", 250, 450},
	{"National Grid", "Utilities", 180, 350},
	{"Verizon Business", "Utilities", 120, 200},
	{"Waste Management", "Utilities", 80, 150},
	{"Staples", "Office Supplies", 50, 200},
	{"Amazon Business", "Office Supplies", 30, 250},
	{"ADP Payroll", "Payroll", 2000, 5000},
	{"Square Payroll", "Payroll", 1500, 4000},
	{"State Farm Insurance", "Professional Fees", 200, 500},
	{"Cintas", "Professional Fees", 100, 300},
	{"Sysco Boston", "Inventory - Food & Supplies", 200, 800},
	{"US Foods", "Inventory - Food & Supplies", 180, 750},
	{"Restaurant Depot", "Inventory - Food & Supplies", 150, 600},
	{"Facebook Ads", "Marketing", 100, 500},
	{"Google Ads", "Marketing", 150, 600},
	{"DoorDash", "Marketing", 40, 180},
}

// Generate produces n transactions spread over the 30 days before now.
// Roughly 60% are revenue, mirroring a healthy small business. The rng is
// injected so tests can be deterministic.
func Generate(n int, now time.Time, rng *rand.Rand) []storage.Transaction {
	txns := make([]storage.Transaction, 0, n)
	for range n {
		occurredAt := now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)

		var t storage.Transaction
		if rng.Float64() < 0.6 {
			vendor := revenueVendors[rng.Intn(len(revenueVendors))]
			// Negative amount: money in.
			amount := -(25 + rng.Float64()*475)
			t = storage.Transaction{
				Vendor:   vendor,
				Amount:   decimal.NewFromFloat(amount).Round(2),
				Category: "Revenue",
				Status:   "auto-approved",
			}
		} else {
			v := expenseVendors[rng.Intn(len(expenseVendors))]
			amount := v.min + rng.Float64()*(v.max-v.min)
			status := "auto-approved"
			if rng.Float64() < 0.15 {
				status = "needs-review"
			}
			t = storage.Transaction{
				Vendor:   v.name,
				Amount:   decimal.NewFromFloat(amount).Round(2),
				Category: v.category,
				Status:   status,
			}
		}

		t.ID = uuid.New().String()
		t.OccurredAt = occurredAt.UTC()
		t.Description = t.Vendor
		t.Source = "seed"
		t.CreatedAt = now.UTC()
		txns = append(txns, t)
	}
	return txns
}

// Seed generates and persists n sample transactions.
func Seed(ctx context.Context, store *storage.Store, n int, rng *rand.Rand) (int, error) {
	txns := Generate(n, time.Now(), rng)
	if err := store.SaveTransactions(ctx, txns); err != nil {
		return 0, fmt.Errorf("saving sample transactions: %w", err)
	}
	return len(txns), nil
}
