package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Mutator applies ledger rows and their balance effects inside a caller's atomic unit.
// It is the only code that writes wallet balances.
type Mutator struct{}

// NewMutator returns a Mutator.
func NewMutator() *Mutator {
	return &Mutator{}
}

// ApplyCreate inserts txn and adds its signed amount to its wallet.
func (m *Mutator) ApplyCreate(ctx context.Context, tx service.Store, txn *model.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	wallet, err := m.writableWallet(ctx, tx, txn.OwnerID, txn.WalletID)
	if err != nil {
		return err
	}
	if err := m.checkCategory(ctx, tx, txn); err != nil {
		return err
	}

	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return err
	}
	return m.applyDelta(ctx, tx, wallet, txn.SignedAmount())
}

// ApplyEdit replaces old with updated and moves the balance effect accordingly. old must
// be the row as read inside the same unit; updated carries the same ID and version.
func (m *Mutator) ApplyEdit(ctx context.Context, tx service.Store, old, updated *model.Transaction) error {
	if old.Kind.IsTransfer() || updated.Kind.IsTransfer() {
		return common.Validationf("transfer halves cannot be edited individually; delete the transfer and create a new one")
	}
	if old.ID != updated.ID || old.OwnerID != updated.OwnerID {
		return common.Validationf("edit must target the same transaction")
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	newWallet, err := m.writableWallet(ctx, tx, updated.OwnerID, updated.WalletID)
	if err != nil {
		return err
	}
	if err := m.checkCategory(ctx, tx, updated); err != nil {
		return err
	}

	updated.Version = old.Version
	if err := tx.UpdateTransaction(ctx, updated); err != nil {
		return err
	}

	if old.WalletID == updated.WalletID {
		return m.applyDelta(ctx, tx, newWallet, updated.SignedAmount().Sub(old.SignedAmount()))
	}

	oldWallet, err := tx.GetWallet(ctx, old.OwnerID, old.WalletID)
	if err != nil {
		return err
	}
	if err := m.applyDelta(ctx, tx, oldWallet, old.SignedAmount().Neg()); err != nil {
		return err
	}
	return m.applyDelta(ctx, tx, newWallet, updated.SignedAmount())
}

// ApplyDelete removes txn and reverses its effect on its wallet.
func (m *Mutator) ApplyDelete(ctx context.Context, tx service.Store, txn *model.Transaction) error {
	wallet, err := tx.GetWallet(ctx, txn.OwnerID, txn.WalletID)
	if err != nil {
		return err
	}

	if err := tx.DeleteTransaction(ctx, txn.OwnerID, txn.ID); err != nil {
		return err
	}
	return m.applyDelta(ctx, tx, wallet, txn.SignedAmount().Neg())
}

// applyDelta writes wallet.Balance + delta, guarded by the wallet's version, and keeps
// the in-memory wallet in step so it can be reused within the unit.
func (m *Mutator) applyDelta(ctx context.Context, tx service.Store, wallet *model.Wallet, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	balance := wallet.Balance.Add(delta)
	if err := tx.UpdateWalletBalance(ctx, wallet.ID, balance, wallet.Version); err != nil {
		return err
	}

	slog.Debug("applied balance delta",
		"wallet", wallet.ID,
		"delta", delta.String(),
		"balance", balance.String())

	wallet.Balance = balance
	wallet.Version++
	return nil
}

func (m *Mutator) writableWallet(ctx context.Context, tx service.Store, ownerID string, walletID int64) (*model.Wallet, error) {
	wallet, err := tx.GetWallet(ctx, ownerID, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.Archived {
		return nil, common.Validationf("wallet %q is archived", wallet.Name)
	}
	return wallet, nil
}

func (m *Mutator) checkCategory(ctx context.Context, tx service.Store, txn *model.Transaction) error {
	category, err := tx.GetCategory(ctx, txn.OwnerID, txn.CategoryID)
	if err != nil {
		return err
	}
	if want := txn.Kind.CategoryType(); category.Type != want {
		return fmt.Errorf("%w: %s transaction needs a %s category, %q is %s",
			common.ErrValidation, txn.Kind, want, category.Name, category.Type)
	}
	return nil
}
