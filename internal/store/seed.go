package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// defaultCategories are created on first run only. Ids are generated per
// device; sync reconciles them by id, so two devices seeding independently
// keep both copies (same behavior as the mobile client).
var defaultCategories = []struct {
	name, icon, typ, color string
}{
	{"Food & Dining", "shopping-bag", "expense", "#000000"},
	{"Transport", "navigation", "expense", "#525252"},
	{"Entertainment", "play-circle", "expense", "#737373"},
	{"Shopping", "shopping-cart", "expense", "#A3A3A3"},
	{"Bills & Utilities", "zap", "expense", "#404040"},
	{"Salary", "briefcase", "income", "#059669"},
	{"Freelance", "briefcase", "income", "#10B981"},
	{"Other", "more-horizontal", "expense", "#D4D4D4"},
}

// Seed inserts default settings, the singleton user-preferences row, and the
// default category set. Idempotent: existing data is never touched.
func (db *DB) Seed(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value, synced, updated_at)
		 VALUES ('currency', 'INR', 0, datetime('now'))`); err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}

	var prefCount int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_preferences").Scan(&prefCount); err != nil {
		return fmt.Errorf("failed to count user preferences: %w", err)
	}
	if prefCount == 0 {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO user_preferences (id, created_at, updated_at, synced)
			 VALUES (?, ?, ?, 0)`,
			uuid.NewString(), now, now); err != nil {
			return fmt.Errorf("failed to seed user preferences: %w", err)
		}
	}

	var catCount int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories").Scan(&catCount); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if catCount > 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, cat := range defaultCategories {
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO categories (id, name, icon, type, color, created_at, updated_at, synced, deleted)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
			uuid.NewString(), cat.name, cat.icon, cat.typ, cat.color, now, now); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.name, err)
		}
	}

	return nil
}
