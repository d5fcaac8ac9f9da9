package dal

import (
	"context"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// BudgetsByMonth returns live per-category budgets for a YYYY-MM month with
// the category joined in and spent derived from transactions.
func (d *DAL) BudgetsByMonth(ctx context.Context, month string) ([]model.BudgetWithCategory, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT b.id, b.category_id, b.limit_amount, b.month,
		       b.created_at, b.updated_at, b.synced, b.deleted,
		       c.name, c.icon
		FROM budgets b
		JOIN categories c ON b.category_id = c.id
		WHERE b.month = ? AND b.deleted = 0
		ORDER BY c.name`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.BudgetWithCategory
	for rows.Next() {
		var b model.BudgetWithCategory
		var createdAt, updatedAt string
		var synced, deleted int
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.LimitAmount, &b.Month,
			&createdAt, &updatedAt, &synced, &deleted,
			&b.CategoryName, &b.CategoryIcon); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.CreatedAt = parseTime(createdAt)
		b.UpdatedAt = parseTime(updatedAt)
		b.Synced = synced == 1
		b.Deleted = deleted == 1
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	// Spent is always derived on read, never stored.
	for i := range budgets {
		spent, err := d.SpentByCategory(ctx, budgets[i].CategoryID, month)
		if err != nil {
			return nil, err
		}
		budgets[i].Spent = spent
	}
	return budgets, nil
}

// CreateBudget inserts a new per-category budget.
func (d *DAL) CreateBudget(ctx context.Context, b *model.Budget) error {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CategoryID == "" {
		return fmt.Errorf("invalid budget: category reference is required")
	}
	if b.Month == "" {
		return fmt.Errorf("invalid budget: month is required")
	}

	now := nowStamp()
	_, err := d.db.RawDB().ExecContext(ctx, `
		INSERT INTO budgets (id, category_id, limit_amount, month, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0)`,
		b.ID, b.CategoryID, b.LimitAmount, b.Month, now, now)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	b.CreatedAt = parseTime(now)
	b.UpdatedAt = parseTime(now)
	b.Synced = false
	b.Deleted = false
	return nil
}

// UpdateBudgetLimit changes a budget's limit amount.
func (d *DAL) UpdateBudgetLimit(ctx context.Context, id string, limit float64) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE budgets SET limit_amount = ?, updated_at = ?, synced = 0 WHERE id = ?`,
		limit, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

// DeleteBudget soft-deletes a budget.
func (d *DAL) DeleteBudget(ctx context.Context, id string) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE budgets SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}
