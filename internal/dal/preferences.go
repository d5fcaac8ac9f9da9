package dal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinkeep/coinkeep/internal/model"
)

// preferenceColumns is the set of user_preferences fields that may be
// updated through UpdatePreference. The column name is interpolated into
// SQL, so it must come from this list.
var preferenceColumns = map[string]bool{
	"email":                 true,
	"currency":              true,
	"overall_balance":       true,
	"track_income":          true,
	"notifications_enabled": true,
	"daily_reminder":        true,
	"weekly_report":         true,
	"sync_enabled":          true,
	"has_onboarded":         true,
}

// UserPreferences returns the singleton preferences row, or nil if the
// database has not been seeded yet.
func (d *DAL) UserPreferences(ctx context.Context) (*model.UserPreferences, error) {
	row := d.db.RawDB().QueryRowContext(ctx, `
		SELECT id, email, currency, overall_balance, track_income, notifications_enabled,
		       daily_reminder, weekly_report, sync_enabled, has_onboarded,
		       created_at, updated_at, synced
		FROM user_preferences LIMIT 1`)

	var p model.UserPreferences
	var email, hasOnboarded sql.NullString
	var trackIncome, notifications, daily, weekly, syncEnabled, synced int
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &email, &p.Currency, &p.OverallBalance, &trackIncome,
		&notifications, &daily, &weekly, &syncEnabled, &hasOnboarded,
		&createdAt, &updatedAt, &synced)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user preferences: %w", err)
	}

	p.Email = nullString(email)
	p.HasOnboarded = nullString(hasOnboarded)
	p.TrackIncome = trackIncome == 1
	p.NotificationsEnabled = notifications == 1
	p.DailyReminder = daily == 1
	p.WeeklyReport = weekly == 1
	p.SyncEnabled = syncEnabled == 1
	p.Synced = synced == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// UpdatePreference sets one field on the singleton preferences row.
// Booleans should be passed as 0/1 integers to match the stored form.
// Errors when the singleton has not been seeded yet, so a write is never
// silently dropped.
func (d *DAL) UpdatePreference(ctx context.Context, field string, value any) error {
	if !preferenceColumns[field] {
		return fmt.Errorf("unknown preference field %q", field)
	}

	query := fmt.Sprintf(
		"UPDATE user_preferences SET %s = ?, updated_at = ?, synced = 0", field)
	res, err := d.db.RawDB().ExecContext(ctx, query, value, nowStamp())
	if err != nil {
		return fmt.Errorf("failed to update preference %s: %w", field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update preference %s: %w", field, err)
	}
	if n == 0 {
		return fmt.Errorf("no preferences row to update for %s", field)
	}
	return nil
}
