package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferInput describes money moving between two of an owner's wallets.
type TransferInput struct {
	Date         time.Time
	Amount       decimal.Decimal
	OwnerID      string
	Description  string
	FromWalletID int64
	ToWalletID   int64
}

// TransferResult holds both halves of a completed transfer.
type TransferResult struct {
	Out        model.Transaction
	In         model.Transaction
	TransferID string
}

// Transfer moves amount from one wallet to another. Both halves and both balance
// changes are written together or not at all.
func (l *Ledger) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}
	if in.FromWalletID == in.ToWalletID {
		return nil, common.Validationf("cannot transfer to the same wallet")
	}
	if err := model.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	var result *TransferResult
	err := service.InTxWithRetry(ctx, l.store, l.retry, func(tx service.Tx) error {
		from, err := tx.GetWallet(ctx, in.OwnerID, in.FromWalletID)
		if err != nil {
			return err
		}
		to, err := tx.GetWallet(ctx, in.OwnerID, in.ToWalletID)
		if err != nil {
			return err
		}
		if from.Currency != to.Currency {
			return common.Validationf("cannot transfer between %s and %s wallets", from.Currency, to.Currency)
		}

		category, err := tx.EnsureCategory(ctx, in.OwnerID, model.TransferCategoryName, model.CategoryTypeTransfer)
		if err != nil {
			return err
		}

		transferID := uuid.NewString()
		description := strings.TrimSpace(in.Description)
		half := func(walletID int64, kind model.TransactionKind) model.Transaction {
			return model.Transaction{
				OwnerID:     in.OwnerID,
				WalletID:    walletID,
				CategoryID:  category.ID,
				Kind:        kind,
				Amount:      in.Amount,
				Date:        model.Day(in.Date),
				Description: description,
				TransferID:  transferID,
			}
		}

		out := half(from.ID, model.KindTransferOut)
		if err := l.mutator.ApplyCreate(ctx, tx, &out); err != nil {
			return err
		}
		incoming := half(to.ID, model.KindTransferIn)
		if err := l.mutator.ApplyCreate(ctx, tx, &incoming); err != nil {
			return err
		}

		result = &TransferResult{Out: out, In: incoming, TransferID: transferID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Transferred between wallets",
		"owner", in.OwnerID,
		"transfer", result.TransferID,
		"from", in.FromWalletID,
		"to", in.ToWalletID,
		"amount", in.Amount.String())
	return result, nil
}

// DeleteTransfer removes both halves of a transfer and reverses both balance changes.
func (l *Ledger) DeleteTransfer(ctx context.Context, ownerID, transferID string) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}
	if strings.TrimSpace(transferID) == "" {
		return common.Validationf("transfer id is required")
	}

	err := service.InTxWithRetry(ctx, l.store, l.retry, func(tx service.Tx) error {
		return l.deleteTransfer(ctx, tx, ownerID, transferID)
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted transfer", "owner", ownerID, "transfer", transferID)
	return nil
}

// GetTransfer returns both halves of a transfer.
func (l *Ledger) GetTransfer(ctx context.Context, ownerID, transferID string) ([]model.Transaction, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return l.store.GetTransferHalves(ctx, ownerID, transferID)
}

func (l *Ledger) deleteTransfer(ctx context.Context, tx service.Store, ownerID, transferID string) error {
	halves, err := tx.GetTransferHalves(ctx, ownerID, transferID)
	if err != nil {
		return err
	}
	for i := range halves {
		if err := l.mutator.ApplyDelete(ctx, tx, &halves[i]); err != nil {
			return err
		}
	}
	return nil
}
