package dal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinkeep/coinkeep/internal/model"
)

func TestBudgetsByMonthDerivesSpent(t *testing.T) {
	d, ctx := setupTestDAL(t)
	a := createTestAccount(t, d, ctx, "Cash")
	food := createTestCategory(t, d, ctx, "Food", model.CategoryTypeExpense)

	require.NoError(t, d.CreateBudget(ctx, &model.Budget{
		CategoryID: food.ID, LimitAmount: 500, Month: "2026-03",
	}))
	require.NoError(t, d.CreateTransaction(ctx, &model.Transaction{
		Title: "Groceries", Amount: -120, Date: "2026-03-08",
		CategoryID: food.ID, AccountID: a.ID,
	}))

	budgets, err := d.BudgetsByMonth(ctx, "2026-03")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, "Food", budgets[0].CategoryName)
	require.Equal(t, 500.0, budgets[0].LimitAmount)
	require.Equal(t, 120.0, budgets[0].Spent)
}

func TestUpdateBudgetLimit(t *testing.T) {
	d, ctx := setupTestDAL(t)
	food := createTestCategory(t, d, ctx, "Food", model.CategoryTypeExpense)

	b := &model.Budget{CategoryID: food.ID, LimitAmount: 500, Month: "2026-03"}
	require.NoError(t, d.CreateBudget(ctx, b))
	require.NoError(t, d.UpdateBudgetLimit(ctx, b.ID, 650))

	budgets, err := d.BudgetsByMonth(ctx, "2026-03")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.Equal(t, 650.0, budgets[0].LimitAmount)
	require.Equal(t, 0, syncedFlag(t, d, ctx, "budgets", "id", b.ID))
}

func TestMonthlyBudgetCarriesForward(t *testing.T) {
	d, ctx := setupTestDAL(t)

	require.NoError(t, d.SetMonthlyBudget(ctx, "2026-01", 2000))
	require.NoError(t, d.SetMonthlyBudget(ctx, "2026-03", 2400))

	// Exact month wins.
	mb, err := d.MonthlyBudgetForMonth(ctx, "2026-03")
	require.NoError(t, err)
	require.NotNil(t, mb)
	require.Equal(t, 2400.0, mb.Budget)

	// A month with no row inherits the most recent prior one.
	mb, err = d.MonthlyBudgetForMonth(ctx, "2026-02")
	require.NoError(t, err)
	require.NotNil(t, mb)
	require.Equal(t, "2026-01", mb.Month)
	require.Equal(t, 2000.0, mb.Budget)

	mb, err = d.MonthlyBudgetForMonth(ctx, "2026-07")
	require.NoError(t, err)
	require.NotNil(t, mb)
	require.Equal(t, 2400.0, mb.Budget)

	// Nothing set before the first month.
	mb, err = d.MonthlyBudgetForMonth(ctx, "2025-12")
	require.NoError(t, err)
	require.Nil(t, mb)
}

func TestSetMonthlyBudgetUpdatesInPlace(t *testing.T) {
	d, ctx := setupTestDAL(t)

	require.NoError(t, d.SetMonthlyBudget(ctx, "2026-03", 2000))
	require.NoError(t, d.SetMonthlyBudget(ctx, "2026-03", 2500))

	count, err := d.db.CountWhere(ctx, "monthly_budgets", "month = ?", "2026-03")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	mb, err := d.MonthlyBudgetForMonth(ctx, "2026-03")
	require.NoError(t, err)
	require.Equal(t, 2500.0, mb.Budget)
}
