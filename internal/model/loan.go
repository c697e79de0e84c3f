package model

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
)

// LoanStatus is derived from a loan's balances and due date; it is never set by callers.
type LoanStatus string

// Loan statuses.
const (
	LoanOpen    LoanStatus = "OPEN"
	LoanPartial LoanStatus = "PARTIAL"
	LoanOverdue LoanStatus = "OVERDUE"
	LoanPaid    LoanStatus = "PAID"
)

// ParseLoanStatus parses a case-insensitive loan status.
func ParseLoanStatus(s string) (LoanStatus, error) {
	st := LoanStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case LoanOpen, LoanPartial, LoanOverdue, LoanPaid:
		return st, nil
	}
	return "", common.Validationf("unknown loan status %q", s)
}

// DeriveLoanStatus applies the status precedence: paid, then overdue, then partial,
// then open.
func DeriveLoanStatus(principal, outstanding decimal.Decimal, dueDate *time.Time, now time.Time) LoanStatus {
	switch {
	case !outstanding.IsPositive():
		return LoanPaid
	case dueDate != nil && Day(*dueDate).Before(Day(now)):
		return LoanOverdue
	case outstanding.LessThan(principal):
		return LoanPartial
	default:
		return LoanOpen
	}
}

// Outstanding returns principal minus paid, clamped at zero.
func Outstanding(principal, paid decimal.Decimal) decimal.Decimal {
	out := principal.Sub(paid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Loan is money lent informally to a borrower. It lives outside the wallet ledger.
type Loan struct {
	BorrowedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DueDate      *time.Time
	Principal    decimal.Decimal
	Outstanding  decimal.Decimal
	OwnerID      string
	BorrowerName string
	Notes        string
	Status       LoanStatus
	Repayments   []Repayment
	ID           int64
}

// Refresh re-derives Status for the given clock.
func (l *Loan) Refresh(now time.Time) {
	l.Status = DeriveLoanStatus(l.Principal, l.Outstanding, l.DueDate, now)
}

// Validate checks the caller supplied fields.
func (l *Loan) Validate() error {
	if err := common.RequireOwner(l.OwnerID); err != nil {
		return err
	}
	if strings.TrimSpace(l.BorrowerName) == "" {
		return common.Validationf("borrower name is required")
	}
	if !l.Principal.IsPositive() {
		return common.Validationf("principal must be greater than zero, got %s", l.Principal.String())
	}
	if l.BorrowedAt.IsZero() {
		return common.Validationf("borrowed date is required")
	}
	return nil
}

// Repayment is one entry in a loan's repayment sub-ledger.
type Repayment struct {
	PaidAt    time.Time
	CreatedAt time.Time
	Amount    decimal.Decimal
	OwnerID   string
	Notes     string
	ID        int64
	LoanID    int64
}
