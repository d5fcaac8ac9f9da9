package dal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// Categories returns all live categories ordered by type then name.
func (d *DAL) Categories(ctx context.Context) ([]model.Category, error) {
	return d.queryCategories(ctx, `
		SELECT id, name, icon, type, color, created_at, updated_at, synced, deleted
		FROM categories WHERE deleted = 0 ORDER BY type, name`)
}

// CategoriesByType returns live categories of one type ordered by name.
func (d *DAL) CategoriesByType(ctx context.Context, typ string) ([]model.Category, error) {
	return d.queryCategories(ctx, `
		SELECT id, name, icon, type, color, created_at, updated_at, synced, deleted
		FROM categories WHERE type = ? AND deleted = 0 ORDER BY name`, typ)
}

// CategoryByID retrieves a single live category.
// Returns sql.ErrNoRows if the category is not found or soft-deleted.
func (d *DAL) CategoryByID(ctx context.Context, id string) (*model.Category, error) {
	row := d.db.RawDB().QueryRowContext(ctx, `
		SELECT id, name, icon, type, color, created_at, updated_at, synced, deleted
		FROM categories WHERE id = ? AND deleted = 0`, id)
	return scanCategory(row)
}

// CreateCategory inserts a new category, assigning its id and timestamps.
func (d *DAL) CreateCategory(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}

	now := nowStamp()
	_, err := d.db.RawDB().ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, type, color, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		c.ID, c.Name, c.Icon, c.Type, c.Color, now, now)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	c.CreatedAt = parseTime(now)
	c.UpdatedAt = parseTime(now)
	c.Synced = false
	c.Deleted = false
	return nil
}

// DeleteCategory soft-deletes a category together with its live transactions
// and budgets, in one SQL transaction. Account balances are restored for the
// tombstoned transactions, and cascading the children keeps the
// cloud-acknowledged purge from tripping a foreign key.
func (d *DAL) DeleteCategory(ctx context.Context, id string) error {
	tx, err := d.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowStamp()
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - (
			SELECT COALESCE(SUM(amount), 0) FROM transactions
			WHERE account_id = accounts.id AND category_id = ? AND deleted = 0
		), updated_at = ?, synced = 0
		WHERE id IN (
			SELECT DISTINCT account_id FROM transactions
			WHERE category_id = ? AND deleted = 0
		)`,
		id, now, id); err != nil {
		return fmt.Errorf("failed to restore account balances: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted = 1, synced = 0, updated_at = ?
		WHERE category_id = ? AND deleted = 0`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete category transactions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE budgets SET deleted = 1, synced = 0, updated_at = ?
		WHERE category_id = ? AND deleted = 0`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete category budgets: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE categories SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *DAL) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func scanCategory(row interface{ Scan(dest ...any) error }) (*model.Category, error) {
	var c model.Category
	var createdAt, updatedAt string
	var synced, deleted int
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &c.Color,
		&createdAt, &updatedAt, &synced, &deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	c.Synced = synced == 1
	c.Deleted = deleted == 1
	return &c, nil
}
