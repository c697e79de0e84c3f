package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories_UniquePerOwnerNameType(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestCategory(t, store, testOwner, "Gifts", model.CategoryTypeExpense)

	err := store.CreateCategory(ctx, &model.Category{OwnerID: testOwner, Name: "Gifts", Type: model.CategoryTypeExpense})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Same name with another type, or for another owner, is a different category.
	createTestCategory(t, store, testOwner, "Gifts", model.CategoryTypeIncome)
	createTestCategory(t, store, "other", "Gifts", model.CategoryTypeExpense)

	categories, err := store.ListCategories(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestCategories_EnsureCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.EnsureCategory(ctx, testOwner, model.TransferCategoryName, model.CategoryTypeTransfer)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := store.EnsureCategory(ctx, testOwner, model.TransferCategoryName, model.CategoryTypeTransfer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCategories_References(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)
	unused := createTestCategory(t, store, testOwner, "Unused", model.CategoryTypeExpense)
	createTestTransaction(t, store, w, food, model.KindExpense, "5", day(2024, 1, 1))

	n, err := store.CountCategoryReferences(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.CountCategoryReferences(ctx, unused.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, store.DeleteCategory(ctx, testOwner, unused.ID))
	_, err = store.GetCategory(ctx, testOwner, unused.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
