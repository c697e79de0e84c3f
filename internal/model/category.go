package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// CategoryType indicates whether a category is for income, expense, or transfers.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "INCOME"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "EXPENSE"
	// CategoryTypeTransfer represents the system-managed category used by transfer halves.
	CategoryTypeTransfer CategoryType = "TRANSFER"
)

// TransferCategoryName is the per-owner category created lazily for transfers.
const TransferCategoryName = "Transfer"

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return true
	}
	return false
}

// ParseCategoryType parses a case-insensitive category type.
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", common.Validationf("unknown category type %q", s)
	}
	return t, nil
}

// Category groups transactions for reporting and budgeting.
type Category struct {
	CreatedAt time.Time
	OwnerID   string
	Name      string
	Type      CategoryType
	ID        int64
}

// Validate ensures the category has the required fields.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return common.Validationf("category name is required")
	}
	if !c.Type.Valid() {
		return common.Validationf("unknown category type %q", c.Type)
	}
	return nil
}
