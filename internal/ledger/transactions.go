package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// TransactionInput describes a new income or expense.
type TransactionInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	OwnerID     string
	Kind        model.TransactionKind
	Description string
	Notes       string
	WalletID    int64
	CategoryID  int64
}

// TransactionEdit lists the fields to change; nil fields keep their value.
type TransactionEdit struct {
	Date        *time.Time
	Amount      *decimal.Decimal
	Kind        *model.TransactionKind
	Description *string
	Notes       *string
	WalletID    *int64
	CategoryID  *int64
}

func (e TransactionEdit) apply(txn *model.Transaction) {
	if e.Date != nil {
		txn.Date = model.Day(*e.Date)
	}
	if e.Amount != nil {
		txn.Amount = *e.Amount
	}
	if e.Kind != nil {
		txn.Kind = *e.Kind
	}
	if e.Description != nil {
		txn.Description = strings.TrimSpace(*e.Description)
	}
	if e.Notes != nil {
		txn.Notes = *e.Notes
	}
	if e.WalletID != nil {
		txn.WalletID = *e.WalletID
	}
	if e.CategoryID != nil {
		txn.CategoryID = *e.CategoryID
	}
}

// CreateTransaction records an income or expense and updates its wallet balance.
func (l *Ledger) CreateTransaction(ctx context.Context, in TransactionInput) (*model.Transaction, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}
	if in.Kind != model.KindIncome && in.Kind != model.KindExpense {
		return nil, common.Validationf("kind must be INCOME or EXPENSE; use a transfer to move money between wallets")
	}
	if err := model.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	var created *model.Transaction
	err := service.InTxWithRetry(ctx, l.store, l.retry, func(tx service.Tx) error {
		txn := &model.Transaction{
			OwnerID:     in.OwnerID,
			WalletID:    in.WalletID,
			CategoryID:  in.CategoryID,
			Kind:        in.Kind,
			Amount:      in.Amount,
			Date:        model.Day(in.Date),
			Description: strings.TrimSpace(in.Description),
			Notes:       in.Notes,
		}
		if err := l.mutator.ApplyCreate(ctx, tx, txn); err != nil {
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created transaction",
		"owner", in.OwnerID,
		"id", created.ID,
		"wallet", created.WalletID,
		"kind", created.Kind,
		"amount", created.Amount.String())
	return created, nil
}

// GetTransaction returns one of owner's transactions.
func (l *Ledger) GetTransaction(ctx context.Context, ownerID string, id int64) (*model.Transaction, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return l.store.GetTransaction(ctx, ownerID, id)
}

// ListTransactions returns owner's transactions matching filter.
func (l *Ledger) ListTransactions(ctx context.Context, ownerID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, common.Validationf("end date is before start date")
	}
	return l.store.ListTransactions(ctx, ownerID, filter)
}

// EditTransaction changes an income or expense. The balance moves by the difference
// between the old and new signed amounts, across wallets if the wallet changed.
func (l *Ledger) EditTransaction(ctx context.Context, ownerID string, id int64, edit TransactionEdit) (*model.Transaction, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if edit.Amount != nil {
		if err := model.ValidateAmount(*edit.Amount); err != nil {
			return nil, err
		}
	}

	var edited *model.Transaction
	err := service.InTxWithRetry(ctx, l.store, l.retry, func(tx service.Tx) error {
		old, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}

		updated := *old
		edit.apply(&updated)
		if err := l.mutator.ApplyEdit(ctx, tx, old, &updated); err != nil {
			return err
		}
		edited = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Edited transaction", "owner", ownerID, "id", id, "amount", edited.Amount.String())
	return edited, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect. Deleting
// either half of a transfer deletes the whole transfer.
func (l *Ledger) DeleteTransaction(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}

	err := service.InTxWithRetry(ctx, l.store, l.retry, func(tx service.Tx) error {
		txn, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if txn.Kind.IsTransfer() {
			return l.deleteTransfer(ctx, tx, ownerID, txn.TransferID)
		}
		return l.mutator.ApplyDelete(ctx, tx, txn)
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted transaction", "owner", ownerID, "id", id)
	return nil
}
