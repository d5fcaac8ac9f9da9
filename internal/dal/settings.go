package dal

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting returns the value for a settings key, or "" if absent.
func (d *DAL) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := d.db.RawDB().QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a settings key. Settings have no delete concept, only
// overwrite; the write marks the pair unsynced for the next push.
func (d *DAL) SetSetting(ctx context.Context, key, value string) error {
	_, err := d.db.RawDB().ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, synced, updated_at)
		VALUES (?, ?, 0, ?)`, key, value, nowStamp())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
