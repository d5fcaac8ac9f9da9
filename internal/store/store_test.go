package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, path, db.Path())
}

func TestRunMigrationsCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))

	for _, table := range []string{
		"accounts", "categories", "transactions", "budgets", "goals",
		"settings", "user_preferences", "monthly_budgets", "schema_migrations",
	} {
		_, err := db.CountWhere(ctx, table, "")
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestRunMigrationsRecordsVersions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))

	rows, err := db.RawDB().QueryContext(ctx,
		"SELECT version FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []int{1, 2, 3, 4}, versions)
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RunMigrations(ctx))
	require.NoError(t, db.RunMigrations(ctx))
	require.NoError(t, db.RunMigrations(ctx))

	count, err := db.CountWhere(ctx, "schema_migrations", "")
	require.NoError(t, err)
	require.Equal(t, len(migrations), count)
}

func TestSeedDefaults(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))
	require.NoError(t, db.Seed(ctx))

	var currency string
	err := db.RawDB().QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = 'currency'").Scan(&currency)
	require.NoError(t, err)
	require.Equal(t, "INR", currency)

	prefs, err := db.CountWhere(ctx, "user_preferences", "")
	require.NoError(t, err)
	require.Equal(t, 1, prefs)

	categories, err := db.CountWhere(ctx, "categories", "")
	require.NoError(t, err)
	require.NotZero(t, categories)
}

func TestSeedIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))
	require.NoError(t, db.Seed(ctx))

	before, err := db.CountWhere(ctx, "categories", "")
	require.NoError(t, err)

	require.NoError(t, db.Seed(ctx))

	after, err := db.CountWhere(ctx, "categories", "")
	require.NoError(t, err)
	require.Equal(t, before, after)

	prefs, err := db.CountWhere(ctx, "user_preferences", "")
	require.NoError(t, err)
	require.Equal(t, 1, prefs)
}

func TestSeedDoesNotOverrideCurrency(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx))

	_, err := db.RawDB().ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES ('currency', 'USD')")
	require.NoError(t, err)

	require.NoError(t, db.Seed(ctx))

	var currency string
	err = db.RawDB().QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = 'currency'").Scan(&currency)
	require.NoError(t, err)
	require.Equal(t, "USD", currency)
}
