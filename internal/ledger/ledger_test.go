package ledger_test

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = testutil.DefaultOwner

type fixture struct {
	db       *testutil.TestDB
	ledger   *ledger.Ledger
	checking *model.Wallet
	savings  *model.Wallet
	food     *model.Category
	salary   *model.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &fixture{
		db:       db,
		ledger:   ledger.New(db.Storage, ledger.DefaultConfig()),
		checking: db.MustWallet(owner, "Checking", "USD"),
		savings:  db.MustWallet(owner, "Savings", "USD"),
		food:     db.MustCategory(owner, "Food", model.CategoryTypeExpense),
		salary:   db.MustCategory(owner, "Salary", model.CategoryTypeIncome),
	}
}

func (f *fixture) create(t *testing.T, wallet *model.Wallet, kind model.TransactionKind, amount string) *model.Transaction {
	t.Helper()
	category := f.food
	if kind == model.KindIncome {
		category = f.salary
	}
	txn, err := f.ledger.CreateTransaction(context.Background(), ledger.TransactionInput{
		OwnerID:    owner,
		WalletID:   wallet.ID,
		CategoryID: category.ID,
		Kind:       kind,
		Amount:     testutil.Dec(amount),
		Date:       testutil.Date(2024, 3, 15),
	})
	require.NoError(t, err)
	return txn
}

func assertBalance(t *testing.T, f *fixture, wallet *model.Wallet, want string) {
	t.Helper()
	got := f.db.Balance(owner, wallet.ID)
	assert.True(t, got.Equal(testutil.Dec(want)), "wallet %s balance = %s, want %s", wallet.Name, got, want)
}

func TestCreateWallet_DefaultsCurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db.Storage, ledger.Config{DefaultCurrency: "eur"})

	w, err := l.CreateWallet(context.Background(), owner, " Cash ", "")
	require.NoError(t, err)
	assert.Equal(t, "EUR", w.Currency)
	assert.Equal(t, "Cash", w.Name)

	_, err = l.CreateWallet(context.Background(), owner, "Bad", "EURO")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = l.CreateWallet(context.Background(), "", "Nobody", "USD")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCreateTransaction_UpdatesBalance(t *testing.T) {
	f := newFixture(t)

	f.create(t, f.checking, model.KindIncome, "1000")
	f.create(t, f.checking, model.KindExpense, "19.99")

	assertBalance(t, f, f.checking, "980.01")
	assertBalance(t, f, f.savings, "0")
	f.db.AssertBalancesConsistent(owner)
}

func TestCreateTransaction_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	archived := f.db.MustWallet(owner, "Old", "USD")
	require.NoError(t, f.ledger.ArchiveWallet(ctx, owner, archived.ID))
	foreign := f.db.MustWallet("someone-else", "Theirs", "USD")

	valid := ledger.TransactionInput{
		OwnerID:    owner,
		WalletID:   f.checking.ID,
		CategoryID: f.food.ID,
		Kind:       model.KindExpense,
		Amount:     testutil.Dec("10"),
		Date:       testutil.Date(2024, 3, 1),
	}

	tests := []struct {
		mutate  func(in *ledger.TransactionInput)
		wantErr error
		name    string
	}{
		{name: "zero amount", mutate: func(in *ledger.TransactionInput) { in.Amount = decimal.Zero }, wantErr: common.ErrValidation},
		{name: "negative amount", mutate: func(in *ledger.TransactionInput) { in.Amount = testutil.Dec("-5") }, wantErr: common.ErrValidation},
		{name: "category type mismatch", mutate: func(in *ledger.TransactionInput) { in.CategoryID = f.salary.ID }, wantErr: common.ErrValidation},
		{name: "transfer kind", mutate: func(in *ledger.TransactionInput) { in.Kind = model.KindTransferIn }, wantErr: common.ErrValidation},
		{name: "archived wallet", mutate: func(in *ledger.TransactionInput) { in.WalletID = archived.ID }, wantErr: common.ErrValidation},
		{name: "another owner's wallet", mutate: func(in *ledger.TransactionInput) { in.WalletID = foreign.ID }, wantErr: common.ErrNotFound},
		{name: "missing category", mutate: func(in *ledger.TransactionInput) { in.CategoryID = 9999 }, wantErr: common.ErrNotFound},
		{name: "no owner", mutate: func(in *ledger.TransactionInput) { in.OwnerID = "" }, wantErr: common.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.ledger.CreateTransaction(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, f.db.TransactionCount(owner))
	assertBalance(t, f, f.checking, "0")
}

func TestEditTransaction_AppliesDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.checking, model.KindIncome, "500")
	txn := f.create(t, f.checking, model.KindExpense, "50")
	assertBalance(t, f, f.checking, "450")

	amount := testutil.Dec("80")
	edited, err := f.ledger.EditTransaction(ctx, owner, txn.ID, ledger.TransactionEdit{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "80", edited.Amount.String())

	// 50 -> 80 expense moves the balance by exactly -30.
	assertBalance(t, f, f.checking, "420")
	f.db.AssertBalancesConsistent(owner)
}

func TestEditTransaction_KindFlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := f.create(t, f.checking, model.KindExpense, "25")
	assertBalance(t, f, f.checking, "-25")

	kind := model.KindIncome
	_, err := f.ledger.EditTransaction(ctx, owner, txn.ID, ledger.TransactionEdit{Kind: &kind, CategoryID: &f.salary.ID})
	require.NoError(t, err)

	assertBalance(t, f, f.checking, "25")
}

func TestEditTransaction_MovesBetweenWallets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := f.create(t, f.checking, model.KindExpense, "40")

	amount := testutil.Dec("45")
	_, err := f.ledger.EditTransaction(ctx, owner, txn.ID, ledger.TransactionEdit{WalletID: &f.savings.ID, Amount: &amount})
	require.NoError(t, err)

	assertBalance(t, f, f.checking, "0")
	assertBalance(t, f, f.savings, "-45")
	f.db.AssertBalancesConsistent(owner)
}

func TestEditTransaction_InvalidLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn := f.create(t, f.checking, model.KindExpense, "40")

	_, err := f.ledger.EditTransaction(ctx, owner, txn.ID, ledger.TransactionEdit{CategoryID: &f.salary.ID})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.ledger.EditTransaction(ctx, "someone-else", txn.ID, ledger.TransactionEdit{})
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := f.ledger.GetTransaction(ctx, owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, f.food.ID, got.CategoryID)
	assertBalance(t, f, f.checking, "-40")
}

func TestDeleteTransaction_ReversesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.checking, model.KindIncome, "100")
	txn := f.create(t, f.checking, model.KindExpense, "30")

	require.NoError(t, f.ledger.DeleteTransaction(ctx, owner, txn.ID))
	assertBalance(t, f, f.checking, "100")

	assert.ErrorIs(t, f.ledger.DeleteTransaction(ctx, owner, txn.ID), common.ErrNotFound)
	assertBalance(t, f, f.checking, "100")
}

func TestBalanceInvariant_MixedSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, f.checking, model.KindIncome, "1200.50")
	b := f.create(t, f.checking, model.KindExpense, "75.25")
	c := f.create(t, f.savings, model.KindExpense, "10")

	_, err := f.ledger.Transfer(ctx, ledger.TransferInput{
		OwnerID: owner, FromWalletID: f.checking.ID, ToWalletID: f.savings.ID,
		Amount: testutil.Dec("300"), Date: testutil.Date(2024, 3, 16),
	})
	require.NoError(t, err)

	amount := testutil.Dec("1100")
	_, err = f.ledger.EditTransaction(ctx, owner, a.ID, ledger.TransactionEdit{Amount: &amount})
	require.NoError(t, err)
	_, err = f.ledger.EditTransaction(ctx, owner, b.ID, ledger.TransactionEdit{WalletID: &f.savings.ID})
	require.NoError(t, err)
	require.NoError(t, f.ledger.DeleteTransaction(ctx, owner, c.ID))

	f.db.AssertBalancesConsistent(owner)
	assertBalance(t, f, f.checking, "800")
	assertBalance(t, f, f.savings, "224.75")

	for _, w := range []*model.Wallet{f.checking, f.savings} {
		r, err := f.ledger.Reconcile(ctx, owner, w.ID)
		require.NoError(t, err)
		assert.True(t, r.Consistent(), "wallet %s drifted by %s", w.Name, r.Difference)
	}
}

func TestDeleteWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.checking, model.KindExpense, "1")

	err := f.ledger.DeleteWallet(ctx, owner, f.checking.ID)
	assert.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, f.ledger.DeleteWallet(ctx, owner, f.savings.ID))
	_, err = f.ledger.GetWallet(ctx, owner, f.savings.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.CreateCategory(ctx, owner, "Food", model.CategoryTypeExpense)
	assert.ErrorIs(t, err, common.ErrValidation, "duplicate name and type")

	gifts, err := f.ledger.CreateCategory(ctx, owner, "Gifts", model.CategoryTypeExpense)
	require.NoError(t, err)

	f.create(t, f.checking, model.KindExpense, "5")
	err = f.ledger.DeleteCategory(ctx, owner, f.food.ID)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "cannot delete category with transactions")

	require.NoError(t, f.ledger.DeleteCategory(ctx, owner, gifts.ID))

	ensured, err := f.ledger.EnsureCategory(ctx, owner, "Food", model.CategoryTypeExpense)
	require.NoError(t, err)
	assert.Equal(t, f.food.ID, ensured.ID)
}
