package testutil

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Dec parses a decimal literal or fails the process; fixtures only use constants.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MustWallet creates a wallet or fails the test.
func (db *TestDB) MustWallet(owner, name, currency string) *model.Wallet {
	db.t.Helper()

	w := &model.Wallet{OwnerID: owner, Name: name, Currency: currency, Balance: decimal.Zero}
	if err := db.Storage.CreateWallet(context.Background(), w); err != nil {
		db.t.Fatalf("failed to create wallet %q: %v", name, err)
	}
	return w
}

// MustCategory creates a category or fails the test.
func (db *TestDB) MustCategory(owner, name string, categoryType model.CategoryType) *model.Category {
	db.t.Helper()

	c := &model.Category{OwnerID: owner, Name: name, Type: categoryType}
	if err := db.Storage.CreateCategory(context.Background(), c); err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return c
}

// Balance returns a wallet's cached balance or fails the test.
func (db *TestDB) Balance(owner string, walletID int64) decimal.Decimal {
	db.t.Helper()

	w, err := db.Storage.GetWallet(context.Background(), owner, walletID)
	if err != nil {
		db.t.Fatalf("failed to load wallet %d: %v", walletID, err)
	}
	return w.Balance
}

// AssertBalancesConsistent fails the test if any of owner's wallets has a cached
// balance that differs from the signed sum of its transactions.
func (db *TestDB) AssertBalancesConsistent(owner string) {
	db.t.Helper()
	ctx := context.Background()

	wallets, err := db.Storage.ListWallets(ctx, owner, true)
	if err != nil {
		db.t.Fatalf("failed to list wallets: %v", err)
	}

	for _, w := range wallets {
		sum, err := db.Storage.SumWalletTransactions(ctx, w.ID)
		if err != nil {
			db.t.Fatalf("failed to sum wallet %d: %v", w.ID, err)
		}
		if !sum.Equal(w.Balance) {
			db.t.Errorf("wallet %d (%s): cached balance %s, transactions sum to %s", w.ID, w.Name, w.Balance, sum)
		}
	}
}

// TransactionCount returns how many transactions owner has.
func (db *TestDB) TransactionCount(owner string) int {
	db.t.Helper()

	txns, err := db.Storage.ListTransactions(context.Background(), owner, model.TransactionFilter{})
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return len(txns)
}
