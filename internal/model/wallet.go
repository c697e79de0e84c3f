package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// Wallet holds money for one owner. Balance is a cached aggregate of the wallet's
// transactions and is only written by the ledger.
type Wallet struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Balance   decimal.Decimal
	OwnerID   string
	Name      string
	Currency  string
	ID        int64
	Version   int64
	Archived  bool
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate ensures the wallet has a name and a three-letter currency.
func (w *Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return common.Validationf("wallet name is required")
	}
	if len(w.Currency) != 3 {
		return common.Validationf("currency must be a 3-letter code, got %q", w.Currency)
	}
	return nil
}
