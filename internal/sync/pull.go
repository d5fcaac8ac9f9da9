package sync

import (
	"context"
	"database/sql"
	"fmt"
)

// PullFromCloud downloads the user's full cloud snapshot and folds it into
// the local store. With replaceLocal the local data tables are wiped first
// (sign-in to an existing account on a fresh device); without it, remote
// rows only fill gaps — a row whose id already exists locally is left
// untouched, so offline edits survive the pull.
//
// Returns true only when remote data was applied. A pull error, an empty
// snapshot, or a commit failure all return false and leave the store as it
// was: pull is never destructive on failure.
func (e *Engine) PullFromCloud(ctx context.Context, replaceLocal bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	snap, err := e.client.PullAll(callCtx, e.userID)
	if err != nil {
		e.log.Warn().Err(err).Msg("pull failed")
		return false
	}
	if snap == nil || snap.Size() == 0 {
		e.log.Debug().Msg("pull returned no data")
		return false
	}

	if err := e.applySnapshot(ctx, snap, replaceLocal); err != nil {
		e.log.Warn().Err(err).Msg("failed to apply pulled snapshot")
		return false
	}

	e.log.Info().Int("records", snap.Size()).Bool("replace", replaceLocal).Msg("pull applied")
	return true
}

// applySnapshot folds one snapshot into the store inside a single
// transaction. Parents (accounts, categories) land before rows that
// reference them; remote soft-deleted records are never materialized.
func (e *Engine) applySnapshot(ctx context.Context, snap *Snapshot, replaceLocal bool) error {
	tx, err := e.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replaceLocal {
		// Children first so foreign keys stay satisfied during the wipe.
		for _, table := range []string{
			"transactions", "budgets", "goals", "monthly_budgets", "settings", "accounts", "categories",
		} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	for _, r := range snap.Accounts {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO accounts (id, name, type, balance, icon, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.Name, r.Type, r.Balance, r.Icon, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert account %s: %w", r.LocalID, err)
		}
	}

	for _, r := range snap.Categories {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO categories (id, name, icon, type, color, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.Name, r.Icon, r.Type, r.Color, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", r.LocalID, err)
		}
	}

	for _, r := range snap.Transactions {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO transactions (id, title, amount, note, date, category_id, account_id, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.Title, r.Amount, r.Note, r.Date,
			r.CategoryLocalID, r.AccountLocalID, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", r.LocalID, err)
		}
	}

	for _, r := range snap.Budgets {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO budgets (id, category_id, limit_amount, month, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.CategoryLocalID, r.LimitAmount, r.Month, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert budget %s: %w", r.LocalID, err)
		}
	}

	for _, r := range snap.Goals {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO goals (id, name, icon, target, saved, color, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.Name, r.Icon, r.Target, r.Saved, r.Color, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert goal %s: %w", r.LocalID, err)
		}
	}

	for _, r := range snap.MonthlyBudgets {
		if r.Deleted {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO monthly_budgets (id, month, budget, updated_at, synced, deleted)
			VALUES (?, ?, ?, ?, 1, 0)`,
			r.LocalID, r.Month, r.Budget, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert monthly budget %s: %w", r.LocalID, err)
		}
	}

	// Settings overwrite by key, but never clobber a value edited locally
	// since the last push.
	for _, r := range snap.Settings {
		var synced int
		err := tx.QueryRowContext(ctx,
			"SELECT synced FROM settings WHERE key = ?", r.Key).Scan(&synced)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to check setting %s: %w", r.Key, err)
		}
		if err == nil && synced == 0 {
			continue // local edit pending push wins
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO settings (key, value, updated_at, synced)
			VALUES (?, ?, ?, 1)`,
			r.Key, r.Value, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", r.Key, err)
		}
	}

	if snap.UserPreferences != nil {
		if err := applyPreferences(ctx, tx, snap.UserPreferences); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// applyPreferences merges the remote preferences row into the local
// singleton. Local unsynced changes win outright; otherwise the remote
// fields replace the local ones under the existing local id.
func applyPreferences(ctx context.Context, tx *sql.Tx, r *PreferencesRecord) error {
	var localID string
	var synced int
	err := tx.QueryRowContext(ctx,
		"SELECT id, synced FROM user_preferences LIMIT 1").Scan(&localID, &synced)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check preferences: %w", err)
	}

	if err == sql.ErrNoRows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_preferences (id, email, currency, overall_balance, track_income,
				notifications_enabled, daily_reminder, weekly_report, sync_enabled,
				has_onboarded, updated_at, synced)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			r.LocalID, r.Email, r.Currency, r.OverallBalance, boolInt(r.TrackIncome),
			boolInt(r.NotificationsEnabled), boolInt(r.DailyReminder), boolInt(r.WeeklyReport),
			boolInt(r.SyncEnabled), r.HasOnboarded, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert preferences: %w", err)
		}
		return nil
	}

	if synced == 0 {
		return nil // local edits pending push win
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_preferences SET email = ?, currency = ?, overall_balance = ?,
			track_income = ?, notifications_enabled = ?, daily_reminder = ?,
			weekly_report = ?, sync_enabled = ?, has_onboarded = ?,
			updated_at = ?, synced = 1
		WHERE id = ?`,
		r.Email, r.Currency, r.OverallBalance, boolInt(r.TrackIncome),
		boolInt(r.NotificationsEnabled), boolInt(r.DailyReminder), boolInt(r.WeeklyReport),
		boolInt(r.SyncEnabled), r.HasOnboarded, r.UpdatedAt, localID)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ResetLocalForFreshAccount prepares the store for an account whose cloud
// side holds no data yet: rows that reached the cloud under a previous
// identity are removed, and everything that remains (seeded defaults plus
// never-pushed local rows) is marked dirty so the first push uploads it
// all under the new identity.
func (e *Engine) ResetLocalForFreshAccount(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"transactions", "budgets", "goals", "monthly_budgets", "settings", "accounts", "categories",
	} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE synced = 1"); err != nil {
			return fmt.Errorf("failed to drop synced %s: %w", table, err)
		}
	}

	for _, table := range []string{
		"accounts", "categories", "transactions", "budgets", "goals",
		"monthly_budgets", "settings", "user_preferences",
	} {
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET synced = 0"); err != nil {
			return fmt.Errorf("failed to mark %s dirty: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	e.log.Info().Msg("local store reset for fresh account")
	return nil
}

// DeleteUserData removes the user's data from the cloud, then wipes the
// local store back to an empty state. The remote delete must succeed
// before anything local is touched.
func (e *Engine) DeleteUserData(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	if err := e.client.DeleteUserData(callCtx, e.userID); err != nil {
		return fmt.Errorf("failed to delete cloud data: %w", err)
	}

	tx, err := e.db.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"transactions", "budgets", "goals", "monthly_budgets", "settings",
		"accounts", "categories", "user_preferences",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wipe: %w", err)
	}

	e.log.Info().Str("user", e.userID).Msg("user data deleted")
	return nil
}
