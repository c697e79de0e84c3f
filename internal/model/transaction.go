package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// TransactionKind tags a ledger row. Transfer halves are distinct kinds that share a
// TransferID, so they never need to be told apart from income or expense by text.
type TransactionKind string

// Transaction kinds.
const (
	KindIncome      TransactionKind = "INCOME"
	KindExpense     TransactionKind = "EXPENSE"
	KindTransferOut TransactionKind = "TRANSFER_OUT"
	KindTransferIn  TransactionKind = "TRANSFER_IN"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// IsTransfer reports whether k is one half of a transfer.
func (k TransactionKind) IsTransfer() bool {
	return k == KindTransferOut || k == KindTransferIn
}

// CategoryType returns the category type a transaction of this kind must use.
func (k TransactionKind) CategoryType() CategoryType {
	switch k {
	case KindIncome:
		return CategoryTypeIncome
	case KindExpense:
		return CategoryTypeExpense
	default:
		return CategoryTypeTransfer
	}
}

// ParseKind parses a user supplied INCOME or EXPENSE kind. Transfer kinds are only
// produced by the transfer coordinator.
func ParseKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToUpper(strings.TrimSpace(s)))
	if k != KindIncome && k != KindExpense {
		return "", common.Validationf("kind must be INCOME or EXPENSE, got %q", s)
	}
	return k, nil
}

// Transaction is a single row of the ledger.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RecurringID *int64
	Amount      decimal.Decimal
	OwnerID     string
	Kind        TransactionKind
	TransferID  string
	Description string
	Notes       string
	ID          int64
	WalletID    int64
	CategoryID  int64
	Version     int64
}

// SignedAmount is the transaction's effect on its wallet balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Kind {
	case KindIncome, KindTransferIn:
		return t.Amount
	default:
		return t.Amount.Neg()
	}
}

// ValidateAmount requires a strictly positive amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.Validationf("amount must be greater than zero, got %s", amount.String())
	}
	return nil
}

// Validate checks the fields that do not require a store lookup.
func (t *Transaction) Validate() error {
	if err := common.RequireOwner(t.OwnerID); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return common.Validationf("unknown transaction kind %q", t.Kind)
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.WalletID == 0 {
		return common.Validationf("wallet is required")
	}
	if t.CategoryID == 0 {
		return common.Validationf("category is required")
	}
	if t.Date.IsZero() {
		return common.Validationf("date is required")
	}
	if t.Kind.IsTransfer() != (t.TransferID != "") {
		return common.Validationf("transfer id must be set exactly for transfer halves")
	}
	return nil
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Start      *time.Time
	End        *time.Time
	WalletID   int64
	CategoryID int64
	Kind       TransactionKind
	Limit      int
	Offset     int
}
