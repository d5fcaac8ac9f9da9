package store

import (
	"context"
	"fmt"
)

// migration is an ordered, versioned set of schema statements. Migrations
// are never rewritten after release, only appended.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT 'cash',
				balance REAL NOT NULL DEFAULT 0,
				icon TEXT NOT NULL DEFAULT 'credit-card',
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE IF NOT EXISTS categories (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				icon TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT 'expense',
				color TEXT NOT NULL DEFAULT '#000000',
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				amount REAL NOT NULL,
				note TEXT NOT NULL DEFAULT '',
				date TEXT NOT NULL,
				category_id TEXT NOT NULL,
				account_id TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				FOREIGN KEY (category_id) REFERENCES categories(id),
				FOREIGN KEY (account_id) REFERENCES accounts(id)
			)`,
			`CREATE TABLE IF NOT EXISTS budgets (
				id TEXT PRIMARY KEY,
				category_id TEXT NOT NULL,
				limit_amount REAL NOT NULL,
				month TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				FOREIGN KEY (category_id) REFERENCES categories(id)
			)`,
			`CREATE TABLE IF NOT EXISTS goals (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				icon TEXT NOT NULL DEFAULT 'target',
				target REAL NOT NULL,
				saved REAL NOT NULL DEFAULT 0,
				color TEXT NOT NULL DEFAULT '#000000',
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
			`CREATE INDEX IF NOT EXISTS idx_budgets_month ON budgets(month)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		},
	},
	{
		version: 3,
		statements: []string{
			// Sync + soft-delete columns for all data tables
			`ALTER TABLE accounts ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE accounts ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE categories ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE categories ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE transactions ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE transactions ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE budgets ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE budgets ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE goals ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE goals ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`,
			// Settings is key/value with overwrite semantics, so it only
			// needs synced plus updated_at for conflict resolution.
			`ALTER TABLE settings ADD COLUMN synced INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE settings ADD COLUMN updated_at TEXT NOT NULL DEFAULT (datetime('now'))`,
		},
	},
	{
		version: 4,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS user_preferences (
				id TEXT PRIMARY KEY,
				email TEXT DEFAULT '',
				currency TEXT NOT NULL DEFAULT 'INR',
				overall_balance REAL NOT NULL DEFAULT 0,
				track_income INTEGER NOT NULL DEFAULT 1,
				notifications_enabled INTEGER NOT NULL DEFAULT 1,
				daily_reminder INTEGER NOT NULL DEFAULT 1,
				weekly_report INTEGER NOT NULL DEFAULT 1,
				sync_enabled INTEGER NOT NULL DEFAULT 1,
				has_onboarded TEXT,
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				synced INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS monthly_budgets (
				id TEXT PRIMARY KEY,
				month TEXT NOT NULL UNIQUE,
				budget REAL NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				synced INTEGER NOT NULL DEFAULT 0,
				deleted INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_monthly_budgets_month ON monthly_budgets(month)`,
		},
	},
}

// RunMigrations applies every migration not yet recorded in the ledger, in
// ascending version order.
//
// Each migration's statements execute inside one transaction: on any
// statement failure the transaction rolls back and the error propagates.
// The application must not proceed with a partially migrated schema.
// Safe to call on every process start (idempotent).
func (db *DB) RunMigrations(ctx context.Context) error {
	ledger := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`
	if _, err := db.conn.ExecContext(ctx, ledger); err != nil {
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.conn.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to read migration ledger: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating migration ledger: %w", err)
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}

	return nil
}

// applyMigration runs one migration's statements and records its version,
// all inside a single transaction.
func (db *DB) applyMigration(ctx context.Context, m migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}
