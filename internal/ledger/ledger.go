// Package ledger keeps wallet balances consistent with the transaction log. Every
// mutation runs as one atomic unit and is retried in full on a version conflict.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Ledger manages wallets, categories, transactions and transfers for owners.
type Ledger struct {
	store           service.Storage
	mutator         *Mutator
	defaultCurrency string
	retry           common.RetryOptions
}

// Config holds configuration options for the ledger.
type Config struct {
	DefaultCurrency string
	Retry           common.RetryOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultCurrency: "USD",
		Retry:           common.RetryOptions{MaxAttempts: 3},
	}
}

// New creates a ledger over store.
func New(store service.Storage, cfg Config) *Ledger {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = DefaultConfig().DefaultCurrency
	}
	return &Ledger{
		store:           store,
		mutator:         NewMutator(),
		defaultCurrency: model.NormalizeCurrency(cfg.DefaultCurrency),
		retry:           cfg.Retry,
	}
}

// Mutator returns the ledger's mutator for use inside other atomic units.
func (l *Ledger) Mutator() *Mutator {
	return l.mutator
}

// CreateWallet creates an empty wallet. An empty currency uses the configured default.
func (l *Ledger) CreateWallet(ctx context.Context, ownerID, name, currency string) (*model.Wallet, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(currency) == "" {
		currency = l.defaultCurrency
	}

	wallet := &model.Wallet{
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(name),
		Currency: model.NormalizeCurrency(currency),
		Balance:  decimal.Zero,
	}
	if err := wallet.Validate(); err != nil {
		return nil, err
	}

	if err := l.store.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	slog.Info("Created wallet", "owner", ownerID, "wallet", wallet.ID, "currency", wallet.Currency)
	return wallet, nil
}

// GetWallet returns one of owner's wallets.
func (l *Ledger) GetWallet(ctx context.Context, ownerID string, id int64) (*model.Wallet, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return l.store.GetWallet(ctx, ownerID, id)
}

// ListWallets returns owner's wallets.
func (l *Ledger) ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]model.Wallet, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return l.store.ListWallets(ctx, ownerID, includeArchived)
}

// ArchiveWallet hides a wallet and blocks new transactions in it.
func (l *Ledger) ArchiveWallet(ctx context.Context, ownerID string, id int64) error {
	return l.setArchived(ctx, ownerID, id, true)
}

// RestoreWallet reverses ArchiveWallet.
func (l *Ledger) RestoreWallet(ctx context.Context, ownerID string, id int64) error {
	return l.setArchived(ctx, ownerID, id, false)
}

func (l *Ledger) setArchived(ctx context.Context, ownerID string, id int64, archived bool) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}
	if err := l.store.SetWalletArchived(ctx, ownerID, id, archived); err != nil {
		return err
	}
	slog.Info("Changed wallet archive state", "owner", ownerID, "wallet", id, "archived", archived)
	return nil
}

// DeleteWallet removes a wallet that no transaction or recurring definition uses.
func (l *Ledger) DeleteWallet(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}

	return service.InTx(ctx, l.store, func(tx service.Tx) error {
		if _, err := tx.GetWallet(ctx, ownerID, id); err != nil {
			return err
		}

		n, err := tx.CountWalletTransactions(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.Validationf("cannot delete wallet with transactions (%d); archive it instead", n)
		}
		return tx.DeleteWallet(ctx, ownerID, id)
	})
}

// Reconciliation compares a wallet's cached balance with its transaction log.
type Reconciliation struct {
	Wallet     model.Wallet
	Cached     decimal.Decimal
	Computed   decimal.Decimal
	Difference decimal.Decimal
}

// Consistent reports whether the cached balance matches the log.
func (r Reconciliation) Consistent() bool {
	return r.Difference.IsZero()
}

// Reconcile recomputes a wallet's balance from its transactions. It only reads.
func (l *Ledger) Reconcile(ctx context.Context, ownerID string, walletID int64) (*Reconciliation, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var result Reconciliation
	err := service.InTx(ctx, l.store, func(tx service.Tx) error {
		wallet, err := tx.GetWallet(ctx, ownerID, walletID)
		if err != nil {
			return err
		}
		computed, err := tx.SumWalletTransactions(ctx, walletID)
		if err != nil {
			return err
		}

		result = Reconciliation{
			Wallet:     *wallet,
			Cached:     wallet.Balance,
			Computed:   computed,
			Difference: wallet.Balance.Sub(computed),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Consistent() {
		slog.Warn("Wallet balance drifted from transaction log",
			"owner", ownerID,
			"wallet", walletID,
			"cached", result.Cached.String(),
			"computed", result.Computed.String())
	}
	return &result, nil
}

// CreateCategory creates a category for owner.
func (l *Ledger) CreateCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	category := &model.Category{OwnerID: ownerID, Name: strings.TrimSpace(name), Type: categoryType}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := l.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
		return nil, err
	}
	return category, nil
}

// EnsureCategory returns owner's category with the given name and type, creating it if
// needed.
func (l *Ledger) EnsureCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if !categoryType.Valid() {
		return nil, common.Validationf("unknown category type %q", categoryType)
	}

	var category *model.Category
	err := service.InTx(ctx, l.store, func(tx service.Tx) error {
		var err error
		category, err = tx.EnsureCategory(ctx, ownerID, name, categoryType)
		return err
	})
	return category, err
}

// ListCategories returns owner's categories.
func (l *Ledger) ListCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return l.store.ListCategories(ctx, ownerID)
}

// DeleteCategory removes a category nothing references.
func (l *Ledger) DeleteCategory(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}

	return service.InTx(ctx, l.store, func(tx service.Tx) error {
		if _, err := tx.GetCategory(ctx, ownerID, id); err != nil {
			return err
		}

		n, err := tx.CountCategoryReferences(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return common.Validationf("cannot delete category with transactions (%d references)", n)
		}
		return tx.DeleteCategory(ctx, ownerID, id)
	})
}
