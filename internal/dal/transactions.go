package dal

import (
	"context"
	"fmt"
	"math"

	"github.com/coinkeep/coinkeep/internal/model"
)

// TransactionsByMonth returns live transactions for a YYYY-MM month with
// category name and icon joined in, newest first.
func (d *DAL) TransactionsByMonth(ctx context.Context, month string) ([]model.TransactionWithCategory, error) {
	return d.queryTransactions(ctx, `
		SELECT t.id, t.title, t.amount, t.note, t.date, t.category_id, t.account_id,
		       t.created_at, t.updated_at, t.synced, t.deleted,
		       c.name, c.icon
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.date LIKE ? || '%' AND t.deleted = 0
		ORDER BY t.date DESC, t.created_at DESC`, month)
}

// TransactionsByDate returns live transactions for an exact YYYY-MM-DD date.
func (d *DAL) TransactionsByDate(ctx context.Context, date string) ([]model.TransactionWithCategory, error) {
	return d.queryTransactions(ctx, `
		SELECT t.id, t.title, t.amount, t.note, t.date, t.category_id, t.account_id,
		       t.created_at, t.updated_at, t.synced, t.deleted,
		       c.name, c.icon
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.date = ? AND t.deleted = 0
		ORDER BY t.created_at DESC`, date)
}

// CreateTransaction inserts a new transaction and applies its amount to the
// referenced account's running balance. Both writes happen in one database
// transaction so the balance can never drift from the ledger entry.
func (d *DAL) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Title == "" {
		return fmt.Errorf("invalid transaction: title is required")
	}
	if t.Date == "" {
		return fmt.Errorf("invalid transaction: date is required")
	}
	if t.CategoryID == "" || t.AccountID == "" {
		return fmt.Errorf("invalid transaction: category and account references are required")
	}

	tx, err := d.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowStamp()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, title, amount, note, date, category_id, account_id, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		t.ID, t.Title, t.Amount, t.Note, t.Date, t.CategoryID, t.AccountID, now, now); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ?, updated_at = ?, synced = 0 WHERE id = ?`,
		t.Amount, now, t.AccountID); err != nil {
		return fmt.Errorf("failed to apply transaction to account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	t.CreatedAt = parseTime(now)
	t.UpdatedAt = parseTime(now)
	t.Synced = false
	t.Deleted = false
	return nil
}

// DeleteTransaction soft-deletes a transaction and reverses its effect on
// the account balance, in one database transaction.
func (d *DAL) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := d.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var amount float64
	var accountID string
	if err := tx.QueryRowContext(ctx,
		"SELECT amount, account_id FROM transactions WHERE id = ? AND deleted = 0",
		id).Scan(&amount, &accountID); err != nil {
		return fmt.Errorf("failed to load transaction %s: %w", id, err)
	}

	now := nowStamp()
	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - ?, updated_at = ?, synced = 0 WHERE id = ?`,
		amount, now, accountID); err != nil {
		return fmt.Errorf("failed to restore account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MonthlyIncome sums positive amounts for a YYYY-MM month.
func (d *DAL) MonthlyIncome(ctx context.Context, month string) (float64, error) {
	return d.sumAmount(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE amount > 0 AND date LIKE ? || '%' AND deleted = 0`, month)
}

// MonthlyExpenses sums the magnitude of negative amounts for a month.
func (d *DAL) MonthlyExpenses(ctx context.Context, month string) (float64, error) {
	return d.sumAmount(ctx, `
		SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
		WHERE amount < 0 AND date LIKE ? || '%' AND deleted = 0`, month)
}

// SpentByCategory sums spending in one category for a month.
func (d *DAL) SpentByCategory(ctx context.Context, categoryID, month string) (float64, error) {
	return d.sumAmount(ctx, `
		SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
		WHERE amount < 0 AND category_id = ? AND date LIKE ? || '%' AND deleted = 0`,
		categoryID, month)
}

// CategoryBreakdown returns per-category spending shares for a month,
// largest first.
func (d *DAL) CategoryBreakdown(ctx context.Context, month string) ([]model.CategoryBreakdown, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT c.name, c.icon, SUM(ABS(t.amount)) AS amount
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.amount < 0 AND t.date LIKE ? || '%' AND t.deleted = 0
		GROUP BY c.id
		ORDER BY amount DESC`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query category breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []model.CategoryBreakdown
	var total float64
	for rows.Next() {
		var b model.CategoryBreakdown
		if err := rows.Scan(&b.Name, &b.Icon, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		total += b.Amount
		breakdown = append(breakdown, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown: %w", err)
	}

	for i := range breakdown {
		if total > 0 {
			breakdown[i].Percent = int(math.Round(breakdown[i].Amount / total * 100))
		}
	}
	return breakdown, nil
}

// DailySpending returns the per-day spend totals for a month in date order.
func (d *DAL) DailySpending(ctx context.Context, month string) ([]model.DailySpending, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT date, SUM(ABS(amount)) AS amount
		FROM transactions
		WHERE amount < 0 AND date LIKE ? || '%' AND deleted = 0
		GROUP BY date
		ORDER BY date`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily spending: %w", err)
	}
	defer rows.Close()

	var days []model.DailySpending
	for rows.Next() {
		var ds model.DailySpending
		if err := rows.Scan(&ds.Day, &ds.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily spending: %w", err)
		}
		days = append(days, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily spending: %w", err)
	}
	return days, nil
}

func (d *DAL) sumAmount(ctx context.Context, query string, args ...any) (float64, error) {
	var total float64
	if err := d.db.RawDB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

func (d *DAL) queryTransactions(ctx context.Context, query string, args ...any) ([]model.TransactionWithCategory, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.TransactionWithCategory
	for rows.Next() {
		var t model.TransactionWithCategory
		var createdAt, updatedAt string
		var synced, deleted int
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount, &t.Note, &t.Date,
			&t.CategoryID, &t.AccountID, &createdAt, &updatedAt, &synced, &deleted,
			&t.CategoryName, &t.CategoryIcon); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		t.Synced = synced == 1
		t.Deleted = deleted == 1
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
