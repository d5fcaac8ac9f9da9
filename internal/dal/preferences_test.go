package dal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedPrefs(t *testing.T, d *DAL, ctx context.Context) {
	t.Helper()
	require.NoError(t, d.db.Seed(ctx))
}

func TestUserPreferencesNilBeforeSeed(t *testing.T) {
	d, ctx := setupTestDAL(t)

	prefs, err := d.UserPreferences(ctx)
	require.NoError(t, err)
	require.Nil(t, prefs)
}

func TestUpdatePreferenceMarksDirty(t *testing.T) {
	d, ctx := setupTestDAL(t)
	seedPrefs(t, d, ctx)

	prefs, err := d.UserPreferences(ctx)
	require.NoError(t, err)
	require.NotNil(t, prefs)

	// Simulate a completed push, then mutate.
	_, err = d.db.RawDB().ExecContext(ctx, "UPDATE user_preferences SET synced = 1")
	require.NoError(t, err)

	require.NoError(t, d.UpdatePreference(ctx, "currency", "EUR"))

	prefs, err = d.UserPreferences(ctx)
	require.NoError(t, err)
	require.Equal(t, "EUR", prefs.Currency)
	require.False(t, prefs.Synced)
}

func TestUpdatePreferenceRequiresSeededRow(t *testing.T) {
	d, ctx := setupTestDAL(t)

	// Without the singleton the write has nowhere to land; dropping it
	// silently would lose the value for good.
	err := d.UpdatePreference(ctx, "email", "a@b.test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no preferences row")
}

func TestUpdatePreferenceRejectsUnknownField(t *testing.T) {
	d, ctx := setupTestDAL(t)
	seedPrefs(t, d, ctx)

	err := d.UpdatePreference(ctx, "synced; DROP TABLE accounts", "1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown preference field")
}

func TestUpdatePreferenceBooleanFields(t *testing.T) {
	d, ctx := setupTestDAL(t)
	seedPrefs(t, d, ctx)

	require.NoError(t, d.UpdatePreference(ctx, "daily_reminder", 0))
	require.NoError(t, d.UpdatePreference(ctx, "track_income", 0))

	prefs, err := d.UserPreferences(ctx)
	require.NoError(t, err)
	require.False(t, prefs.DailyReminder)
	require.False(t, prefs.TrackIncome)
	require.True(t, prefs.WeeklyReport)
}

func TestSettingRoundTrip(t *testing.T) {
	d, ctx := setupTestDAL(t)

	value, err := d.Setting(ctx, "currency")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, d.SetSetting(ctx, "currency", "USD"))

	value, err = d.Setting(ctx, "currency")
	require.NoError(t, err)
	require.Equal(t, "USD", value)
	require.Equal(t, 0, syncedFlag(t, d, ctx, "settings", "key", "currency"))

	// Overwrite, never append.
	require.NoError(t, d.SetSetting(ctx, "currency", "EUR"))
	count, err := d.db.CountWhere(ctx, "settings", "key = ?", "currency")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
