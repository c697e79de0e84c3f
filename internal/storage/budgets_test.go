package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgets_CategoryLinks(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)
	fun := createTestCategory(t, store, testOwner, "Fun", model.CategoryTypeExpense)
	travel := createTestCategory(t, store, testOwner, "Travel", model.CategoryTypeExpense)

	budget := &model.Budget{
		OwnerID:     testOwner,
		Name:        "Spending",
		Amount:      dec("500"),
		Period:      model.PeriodMonthly,
		StartDate:   day(2024, 1, 15),
		CategoryIDs: []int64{food.ID, fun.ID},
		IsActive:    true,
	}
	require.NoError(t, store.CreateBudget(ctx, budget))

	got, err := store.GetBudget(ctx, testOwner, budget.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{food.ID, fun.ID}, got.CategoryIDs)
	assert.Nil(t, got.EndDate)

	budget.CategoryIDs = []int64{travel.ID}
	budget.IsActive = false
	require.NoError(t, store.UpdateBudget(ctx, budget))

	all, err := store.ListBudgets(ctx, testOwner, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []int64{travel.ID}, all[0].CategoryIDs)

	active, err := store.ListBudgets(ctx, testOwner, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, store.DeleteBudget(ctx, testOwner, budget.ID))
	_, err = store.GetBudget(ctx, testOwner, budget.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := store.CountCategoryReferences(ctx, travel.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
