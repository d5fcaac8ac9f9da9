package dal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// Accounts returns all live accounts ordered by name.
func (d *DAL) Accounts(ctx context.Context) ([]model.Account, error) {
	rows, err := d.db.RawDB().QueryContext(ctx, `
		SELECT id, name, type, balance, icon, created_at, updated_at, synced, deleted
		FROM accounts WHERE deleted = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// AccountByID retrieves a single live account.
// Returns sql.ErrNoRows if the account is not found or soft-deleted.
func (d *DAL) AccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.db.RawDB().QueryRowContext(ctx, `
		SELECT id, name, type, balance, icon, created_at, updated_at, synced, deleted
		FROM accounts WHERE id = ? AND deleted = 0`, id)
	return scanAccount(row)
}

// CreateAccount inserts a new account, assigning its id and timestamps.
func (d *DAL) CreateAccount(ctx context.Context, a *model.Account) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}

	now := nowStamp()
	_, err := d.db.RawDB().ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, balance, icon, created_at, updated_at, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		a.ID, a.Name, a.Type, a.Balance, a.Icon, now, now)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	a.CreatedAt = parseTime(now)
	a.UpdatedAt = parseTime(now)
	a.Synced = false
	a.Deleted = false
	return nil
}

// UpdateAccountBalance sets the account's running balance.
func (d *DAL) UpdateAccountBalance(ctx context.Context, id string, balance float64) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		UPDATE accounts SET balance = ?, updated_at = ?, synced = 0 WHERE id = ?`,
		balance, nowStamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return nil
}

// DeleteAccount soft-deletes an account together with its live transactions,
// in one SQL transaction. Tombstoning the children alongside the parent keeps
// the cloud-acknowledged purge from tripping the transactions foreign key.
// Rows are physically purged only after the cloud acknowledges the deletion.
func (d *DAL) DeleteAccount(ctx context.Context, id string) error {
	tx, err := d.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowStamp()
	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted = 1, synced = 0, updated_at = ?
		WHERE account_id = ? AND deleted = 0`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete account transactions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET deleted = 1, synced = 0, updated_at = ? WHERE id = ?`,
		now, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanAccount scans one account row.
func scanAccount(row interface{ Scan(dest ...any) error }) (*model.Account, error) {
	var a model.Account
	var createdAt, updatedAt string
	var synced, deleted int
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance, &a.Icon,
		&createdAt, &updatedAt, &synced, &deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	a.Synced = synced == 1
	a.Deleted = deleted == 1
	return &a, nil
}
