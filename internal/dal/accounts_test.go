package dal

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinkeep/coinkeep/internal/model"
)

func TestCreateAccountAssignsIDAndMarksDirty(t *testing.T) {
	d, ctx := setupTestDAL(t)

	a := &model.Account{Name: "Checking", Type: model.AccountTypeBank, Icon: "bank"}
	require.NoError(t, d.CreateAccount(ctx, a))
	require.NotEmpty(t, a.ID)
	require.False(t, a.Synced)

	require.Equal(t, 0, syncedFlag(t, d, ctx, "accounts", "id", a.ID))
}

func TestCreateAccountRejectsInvalidType(t *testing.T) {
	d, ctx := setupTestDAL(t)

	err := d.CreateAccount(ctx, &model.Account{Name: "Bad", Type: "stocks"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid account type")
}

func TestAccountsOrderedByName(t *testing.T) {
	d, ctx := setupTestDAL(t)
	createTestAccount(t, d, ctx, "Wallet")
	createTestAccount(t, d, ctx, "Checking")

	accounts, err := d.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "Checking", accounts[0].Name)
	require.Equal(t, "Wallet", accounts[1].Name)
}

func TestUpdateAccountBalanceMarksDirty(t *testing.T) {
	d, ctx := setupTestDAL(t)
	a := createTestAccount(t, d, ctx, "Cash")

	// Simulate a completed push, then mutate.
	_, err := d.db.RawDB().ExecContext(ctx,
		"UPDATE accounts SET synced = 1 WHERE id = ?", a.ID)
	require.NoError(t, err)

	require.NoError(t, d.UpdateAccountBalance(ctx, a.ID, 250.75))

	got, err := d.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 250.75, got.Balance)
	require.Equal(t, 0, syncedFlag(t, d, ctx, "accounts", "id", a.ID))
}

func TestDeleteAccountIsSoft(t *testing.T) {
	d, ctx := setupTestDAL(t)
	a := createTestAccount(t, d, ctx, "Old Wallet")

	require.NoError(t, d.DeleteAccount(ctx, a.ID))

	// Invisible to every read path.
	accounts, err := d.Accounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)

	_, err = d.AccountByID(ctx, a.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	// Row still present, flagged for the sync engine.
	count, err := d.db.CountWhere(ctx, "accounts", "id = ? AND deleted = 1 AND synced = 0", a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDeleteAccountCascadesToTransactions(t *testing.T) {
	d, ctx := setupTestDAL(t)
	a := createTestAccount(t, d, ctx, "Wallet")
	c := createTestCategory(t, d, ctx, "Food", model.CategoryTypeExpense)
	require.NoError(t, d.CreateTransaction(ctx, &model.Transaction{
		Title: "Lunch", Amount: -12, Date: "2026-03-10",
		CategoryID: c.ID, AccountID: a.ID,
	}))
	require.NoError(t, d.CreateTransaction(ctx, &model.Transaction{
		Title: "Dinner", Amount: -30, Date: "2026-03-11",
		CategoryID: c.ID, AccountID: a.ID,
	}))

	require.NoError(t, d.DeleteAccount(ctx, a.ID))

	// The children are tombstoned with the parent, so no live transaction
	// can hold its foreign key against the eventual purge.
	live, err := d.db.CountWhere(ctx, "transactions", "account_id = ? AND deleted = 0", a.ID)
	require.NoError(t, err)
	require.Zero(t, live)

	dead, err := d.db.CountWhere(ctx, "transactions", "account_id = ? AND deleted = 1 AND synced = 0", a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, dead)
}
