package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallets_OwnerScoping(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")

	got, err := store.GetWallet(ctx, testOwner, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Balance.IsZero())

	_, err = store.GetWallet(ctx, "someone-else", w.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetWallet(ctx, "", w.ID)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestWallets_UpdateBalanceVersioning(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")

	require.NoError(t, store.UpdateWalletBalance(ctx, w.ID, dec("12.34"), w.Version))

	err := store.UpdateWalletBalance(ctx, w.ID, dec("99"), w.Version)
	assert.ErrorIs(t, err, common.ErrConflict)

	err = store.UpdateWalletBalance(ctx, 9999, dec("1"), 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := store.GetWallet(ctx, testOwner, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.34", got.Balance.String())
	assert.Equal(t, w.Version+1, got.Version)
}

func TestWallets_ArchiveAndList(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := createTestWallet(t, store, testOwner, "A")
	createTestWallet(t, store, testOwner, "B")
	createTestWallet(t, store, "other", "C")

	require.NoError(t, store.SetWalletArchived(ctx, testOwner, a.ID, true))

	active, err := store.ListWallets(ctx, testOwner, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].Name)

	all, err := store.ListWallets(ctx, testOwner, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, store.SetWalletArchived(ctx, "other", a.ID, false), common.ErrNotFound)
}

func TestWallets_SumAndCountTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	income := createTestCategory(t, store, testOwner, "Salary", model.CategoryTypeIncome)
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)

	createTestTransaction(t, store, w, income, model.KindIncome, "1000.10", day(2024, 3, 1))
	createTestTransaction(t, store, w, food, model.KindExpense, "0.10", day(2024, 3, 2))
	createTestTransaction(t, store, w, food, model.KindExpense, "250", day(2024, 3, 3))

	sum, err := store.SumWalletTransactions(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "750", sum.String())

	n, err := store.CountWalletTransactions(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
