package dal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinkeep/coinkeep/internal/model"
	"github.com/coinkeep/coinkeep/internal/store"
)

func setupTestDAL(t *testing.T) (*DAL, context.Context) {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(ctx))
	return New(db), ctx
}

func createTestAccount(t *testing.T, d *DAL, ctx context.Context, name string) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, Type: model.AccountTypeCash, Icon: "wallet"}
	require.NoError(t, d.CreateAccount(ctx, a))
	return a
}

func createTestCategory(t *testing.T, d *DAL, ctx context.Context, name, typ string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Icon: "tag", Type: typ, Color: "#ff8800"}
	require.NoError(t, d.CreateCategory(ctx, c))
	return c
}

// syncedFlag reads the raw synced column for one row.
func syncedFlag(t *testing.T, d *DAL, ctx context.Context, table, keyCol, key string) int {
	t.Helper()
	var synced int
	err := d.db.RawDB().QueryRowContext(ctx,
		"SELECT synced FROM "+table+" WHERE "+keyCol+" = ?", key).Scan(&synced)
	require.NoError(t, err)
	return synced
}

func TestParseTimeFormats(t *testing.T) {
	for _, stamp := range []string{
		"2026-03-15T10:30:00.123456789Z",
		"2026-03-15T10:30:00Z",
		"2026-03-15 10:30:00",
	} {
		parsed := parseTime(stamp)
		require.False(t, parsed.IsZero(), "stamp %q should parse", stamp)
		require.Equal(t, 2026, parsed.Year())
	}
	require.True(t, parseTime("garbage").IsZero())
}
