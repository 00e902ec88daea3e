package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SaveTransaction inserts a single transaction.
func (s *Store) SaveTransaction(ctx context.Context, t Transaction) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(id, occurred_at, vendor, description, amount, category, status, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OccurredAt.UTC(), t.Vendor, t.Description, t.Amount.String(),
		t.Category, t.Status, t.Source, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// SaveTransactions inserts a batch atomically.
func (s *Store) SaveTransactions(ctx context.Context, txns []Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(id, occurred_at, vendor, description, amount, category, status, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx, t.ID, t.OccurredAt.UTC(), t.Vendor,
			t.Description, t.Amount.String(), t.Category, t.Status, t.Source, t.CreatedAt.UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// GetTransaction fetches one transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, occurred_at, vendor, description,
		amount, category, status, source, created_at
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns transactions, newest first, optionally filtered by
// category. limit <= 0 means no limit.
func (s *Store) ListTransactions(ctx context.Context, category string, limit int) ([]Transaction, error) {
	query := `SELECT id, occurred_at, vendor, description, amount, category, status, source, created_at
		FROM transactions`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY occurred_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateTransaction rewrites the mutable fields of an existing transaction.
func (s *Store) UpdateTransaction(ctx context.Context, t Transaction) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions
		SET occurred_at = ?, vendor = ?, description = ?, amount = ?, category = ?, status = ?
		WHERE id = ?`,
		t.OccurredAt.UTC(), t.Vendor, t.Description, t.Amount.String(), t.Category, t.Status, t.ID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction by ID.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TotalRevenue sums money in (negative amounts), returned as a positive
// value. Amounts are stored as decimal text, so summation happens here
// rather than in SQL to avoid float drift.
func (s *Store) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, "amount LIKE '-%'", true)
}

// TotalExpenses sums money out (positive amounts).
func (s *Store) TotalExpenses(ctx context.Context) (decimal.Decimal, error) {
	return s.sumAmounts(ctx, "amount NOT LIKE '-%'", false)
}

func (s *Store) sumAmounts(ctx context.Context, where string, negate bool) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT amount FROM transactions WHERE "+where)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scanning amount: %w", err)
		}
		amt, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
		}
		total = total.Add(amt)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}
	if negate {
		total = total.Neg()
	}
	return total, nil
}

// TopExpenseCategories returns up to n expense category names ranked by total
// spend, largest first.
func (s *Store) TopExpenseCategories(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, amount FROM transactions
		WHERE amount NOT LIKE '-%' AND category != ''`)
	if err != nil {
		return nil, fmt.Errorf("querying expense categories: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, raw string
		if err := rows.Scan(&category, &raw); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		amt, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", raw, err)
		}
		totals[category] = totals[category].Add(amt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := totals[names[i]], totals[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j] // stable order for equal totals
	})

	if n > 0 && len(names) > n {
		names = names[:n]
	}
	return names, nil
}

// CountTransactions returns the total number of ledger entries.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return count, nil
}

// ListCategories returns all known categories, income first, then by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, kind FROM categories ORDER BY kind = 'income' DESC, name")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	var amount string
	var occurredAt, createdAt time.Time
	if err := row.Scan(&t.ID, &occurredAt, &t.Vendor, &t.Description, &amount,
		&t.Category, &t.Status, &t.Source, &createdAt); err != nil {
		return Transaction{}, err
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	t.Amount = amt
	t.OccurredAt = occurredAt
	t.CreatedAt = createdAt
	return t, nil
}
