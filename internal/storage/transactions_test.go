package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactions_InsertAndGet(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)

	recurringID := int64(7)
	txn := &model.Transaction{
		OwnerID:     testOwner,
		WalletID:    w.ID,
		CategoryID:  food.ID,
		Kind:        model.KindExpense,
		Amount:      dec("19.99"),
		Date:        time.Date(2024, 5, 6, 15, 30, 0, 0, time.UTC),
		Description: "Lunch",
		RecurringID: &recurringID,
	}
	require.NoError(t, store.InsertTransaction(ctx, txn))

	got, err := store.GetTransaction(ctx, testOwner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Amount.String())
	assert.Equal(t, day(2024, 5, 6), got.Date)
	assert.Equal(t, "Lunch", got.Description)
	require.NotNil(t, got.RecurringID)
	assert.Equal(t, recurringID, *got.RecurringID)
	assert.Empty(t, got.TransferID)

	_, err = store.GetTransaction(ctx, "other", txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactions_InsertRejectsInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)

	err := store.InsertTransaction(ctx, &model.Transaction{
		OwnerID: testOwner, WalletID: w.ID, CategoryID: food.ID,
		Kind: model.KindExpense, Amount: dec("-1"), Date: day(2024, 1, 1),
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestTransactions_UpdateVersioning(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)
	txn := createTestTransaction(t, store, w, food, model.KindExpense, "50", day(2024, 1, 1))

	stale := *txn
	txn.Amount = dec("80")
	require.NoError(t, store.UpdateTransaction(ctx, txn))
	assert.Equal(t, int64(2), txn.Version)

	stale.Amount = dec("10")
	assert.ErrorIs(t, store.UpdateTransaction(ctx, &stale), common.ErrConflict)

	got, err := store.GetTransaction(ctx, testOwner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "80", got.Amount.String())
}

func TestTransactions_ListFilters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	checking := createTestWallet(t, store, testOwner, "Checking")
	savings := createTestWallet(t, store, testOwner, "Savings")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)
	salary := createTestCategory(t, store, testOwner, "Salary", model.CategoryTypeIncome)

	createTestTransaction(t, store, checking, food, model.KindExpense, "10", day(2024, 1, 10))
	createTestTransaction(t, store, checking, salary, model.KindIncome, "100", day(2024, 1, 15))
	createTestTransaction(t, store, savings, food, model.KindExpense, "20", day(2024, 1, 31))
	createTestTransaction(t, store, checking, food, model.KindExpense, "30", day(2024, 2, 1))

	start, end := day(2024, 1, 15), day(2024, 1, 31)

	tests := []struct {
		name   string
		filter model.TransactionFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"30", "20", "100", "10"}},
		{name: "wallet", filter: model.TransactionFilter{WalletID: savings.ID}, want: []string{"20"}},
		{name: "category", filter: model.TransactionFilter{CategoryID: salary.ID}, want: []string{"100"}},
		{name: "kind", filter: model.TransactionFilter{Kind: model.KindExpense}, want: []string{"30", "20", "10"}},
		{name: "inclusive date range", filter: model.TransactionFilter{Start: &start, End: &end}, want: []string{"20", "100"}},
		{name: "paged", filter: model.TransactionFilter{Limit: 2, Offset: 1}, want: []string{"20", "100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.ListTransactions(ctx, testOwner, tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(txns))
			for _, txn := range txns {
				got = append(got, txn.Amount.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactions_TransferHalves(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	from := createTestWallet(t, store, testOwner, "From")
	to := createTestWallet(t, store, testOwner, "To")
	transfer := createTestCategory(t, store, testOwner, model.TransferCategoryName, model.CategoryTypeTransfer)
	id := uuid.NewString()

	// Insert the incoming half first; the outgoing half must still be returned first.
	for _, half := range []struct {
		wallet *model.Wallet
		kind   model.TransactionKind
	}{{to, model.KindTransferIn}, {from, model.KindTransferOut}} {
		require.NoError(t, store.InsertTransaction(ctx, &model.Transaction{
			OwnerID: testOwner, WalletID: half.wallet.ID, CategoryID: transfer.ID,
			Kind: half.kind, Amount: dec("25"), Date: day(2024, 4, 1), TransferID: id,
		}))
	}

	halves, err := store.GetTransferHalves(ctx, testOwner, id)
	require.NoError(t, err)
	require.Len(t, halves, 2)
	assert.Equal(t, model.KindTransferOut, halves[0].Kind)
	assert.Equal(t, model.KindTransferIn, halves[1].Kind)

	_, err = store.GetTransferHalves(ctx, testOwner, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactions_SumExpenses(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	w := createTestWallet(t, store, testOwner, "Checking")
	food := createTestCategory(t, store, testOwner, "Food", model.CategoryTypeExpense)
	fun := createTestCategory(t, store, testOwner, "Fun", model.CategoryTypeExpense)
	salary := createTestCategory(t, store, testOwner, "Salary", model.CategoryTypeIncome)

	createTestTransaction(t, store, w, food, model.KindExpense, "10.25", day(2024, 3, 1))
	createTestTransaction(t, store, w, fun, model.KindExpense, "5", day(2024, 3, 31))
	createTestTransaction(t, store, w, food, model.KindExpense, "99", day(2024, 4, 1))
	createTestTransaction(t, store, w, salary, model.KindIncome, "1000", day(2024, 3, 15))

	sum, err := store.SumExpenses(ctx, testOwner, []int64{food.ID, fun.ID, salary.ID}, day(2024, 3, 1), day(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "15.25", sum.String())

	sum, err = store.SumExpenses(ctx, testOwner, nil, day(2024, 3, 1), day(2024, 4, 1))
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}
