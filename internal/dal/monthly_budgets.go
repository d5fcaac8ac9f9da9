package dal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// MonthlyBudgetForMonth returns the overall budget for a YYYY-MM month.
// If no exact row exists, the most recent prior month's budget is returned
// (budgets carry forward until changed). Returns nil when no budget has
// ever been set.
func (d *DAL) MonthlyBudgetForMonth(ctx context.Context, month string) (*model.MonthlyBudget, error) {
	exact, err := d.monthlyBudgetRow(ctx, `
		SELECT id, month, budget, created_at, updated_at, synced, deleted
		FROM monthly_budgets WHERE month = ? AND deleted = 0`, month)
	if err != nil {
		return nil, err
	}
	if exact != nil {
		return exact, nil
	}

	return d.monthlyBudgetRow(ctx, `
		SELECT id, month, budget, created_at, updated_at, synced, deleted
		FROM monthly_budgets WHERE month < ? AND deleted = 0
		ORDER BY month DESC LIMIT 1`, month)
}

// MonthlyBudgets returns all live monthly budgets, newest month first.
func (d *DAL) MonthlyBudgets(ctx context.Context) ([]model.MonthlyBudget, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT id, month, budget, created_at, updated_at, synced, deleted
		FROM monthly_budgets WHERE deleted = 0 ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.MonthlyBudget
	for rows.Next() {
		mb, err := scanMonthlyBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *mb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly budgets: %w", err)
	}
	return budgets, nil
}

// SetMonthlyBudget creates or updates the budget for a month.
func (d *DAL) SetMonthlyBudget(ctx context.Context, month string, budget float64) error {
	existing, err := d.monthlyBudgetRow(ctx, `
		SELECT id, month, budget, created_at, updated_at, synced, deleted
		FROM monthly_budgets WHERE month = ? AND deleted = 0`, month)
	if err != nil {
		return err
	}

	now := nowStamp()
	if existing != nil {
		_, err := d.db.RawDB().ExecContext(ctx, `
			UPDATE monthly_budgets SET budget = ?, updated_at = ?, synced = 0 WHERE id = ?`,
			budget, now, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to update monthly budget: %w", err)
		}
		return nil
	}

	_, err = d.db.RawDB().ExecContext(ctx, `
		INSERT INTO monthly_budgets (id, month, budget, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, 0, 0)`,
		newID(), month, budget, now, now)
	if err != nil {
		return fmt.Errorf("failed to create monthly budget: %w", err)
	}
	return nil
}

// DeleteMonthlyBudget soft-deletes a monthly budget.
func (d *DAL) DeleteMonthlyBudget(ctx context.Context, id string) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE monthly_budgets SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to delete monthly budget: %w", err)
	}
	return nil
}

// monthlyBudgetRow runs a single-row query, mapping no-rows to nil.
func (d *DAL) monthlyBudgetRow(ctx context.Context, query string, args ...any) (*model.MonthlyBudget, error) {
	mb, err := scanMonthlyBudget(d.db.RawDB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return mb, err
}

func scanMonthlyBudget(row interface{ Scan(dest ...any) error }) (*model.MonthlyBudget, error) {
	var mb model.MonthlyBudget
	var createdAt, updatedAt string
	var synced, deleted int
	err := row.Scan(&mb.ID, &mb.Month, &mb.Budget,
		&createdAt, &updatedAt, &synced, &deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan monthly budget: %w", err)
	}
	mb.CreatedAt = parseTime(createdAt)
	mb.UpdatedAt = parseTime(updatedAt)
	mb.Synced = synced == 1
	mb.Deleted = deleted == 1
	return &mb, nil
}
