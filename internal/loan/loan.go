// Package loan tracks money lent to borrowers and settles it against repayments.
// Outstanding balance and status are caches of the repayment sub-ledger and are only
// written here.
package loan

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

// Service manages loans and repayments.
type Service struct {
	store service.Storage
	now   func() time.Time
}

// New creates a loan service. now may be nil to use the wall clock.
func New(store service.Storage, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// LoanInput describes a new loan.
type LoanInput struct {
	BorrowedAt   time.Time
	DueDate      *time.Time
	Principal    decimal.Decimal
	OwnerID      string
	BorrowerName string
	Notes        string
}

// LoanEdit lists the fields to change; nil fields keep their value.
type LoanEdit struct {
	BorrowedAt   *time.Time
	DueDate      *time.Time
	Principal    *decimal.Decimal
	BorrowerName *string
	Notes        *string
	ClearDueDate bool
}

// Create records a new loan with nothing repaid.
func (s *Service) Create(ctx context.Context, in LoanInput) (*model.Loan, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}

	loan := &model.Loan{
		OwnerID:      in.OwnerID,
		BorrowerName: strings.TrimSpace(in.BorrowerName),
		Principal:    in.Principal,
		Outstanding:  in.Principal,
		BorrowedAt:   model.Day(in.BorrowedAt),
		DueDate:      dayPtr(in.DueDate),
		Notes:        in.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	loan.Refresh(s.now())

	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	slog.Info("Created loan",
		"owner", loan.OwnerID,
		"loan", loan.ID,
		"borrower", loan.BorrowerName,
		"principal", loan.Principal.String())
	return loan, nil
}

// Get returns a loan with its repayments and a status derived for the current clock.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*model.Loan, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var loan *model.Loan
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, ownerID, id)
		if err != nil {
			return err
		}
		loan.Repayments, err = tx.ListRepayments(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	loan.Refresh(s.now())
	return loan, nil
}

// List returns owner's loans, optionally only those in status. Statuses are derived
// for the current clock, so a loan past its due date lists as OVERDUE.
func (s *Service) List(ctx context.Context, ownerID string, status model.LoanStatus) ([]model.Loan, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	loans, err := s.store.ListLoans(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := loans[:0]
	for _, l := range loans {
		l.Refresh(now)
		if status == "" || l.Status == status {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

// Update changes a loan. A principal below what has already been repaid is rejected.
func (s *Service) Update(ctx context.Context, ownerID string, id int64, edit LoanEdit) (*model.Loan, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var loan *model.Loan
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if edit.BorrowerName != nil {
			loan.BorrowerName = strings.TrimSpace(*edit.BorrowerName)
		}
		if edit.Notes != nil {
			loan.Notes = *edit.Notes
		}
		if edit.BorrowedAt != nil {
			loan.BorrowedAt = model.Day(*edit.BorrowedAt)
		}
		if edit.ClearDueDate {
			loan.DueDate = nil
		} else if edit.DueDate != nil {
			loan.DueDate = dayPtr(edit.DueDate)
		}
		if edit.Principal != nil {
			loan.Principal = *edit.Principal
		}
		if err := loan.Validate(); err != nil {
			return err
		}

		paid, err := tx.SumRepayments(ctx, id)
		if err != nil {
			return err
		}
		if loan.Principal.LessThan(paid) {
			return common.Validationf("principal %s is less than the %s already repaid",
				loan.Principal.StringFixed(2), paid.StringFixed(2))
		}

		return s.settle(ctx, tx, loan, paid)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Updated loan", "owner", ownerID, "loan", id, "status", loan.Status)
	return loan, nil
}

// Delete removes a loan and its repayments.
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteLoan(ctx, ownerID, id); err != nil {
		return err
	}
	slog.Info("Deleted loan", "owner", ownerID, "loan", id)
	return nil
}

// settle recomputes outstanding and status from paid and writes them.
func (s *Service) settle(ctx context.Context, tx service.Store, loan *model.Loan, paid decimal.Decimal) error {
	loan.Outstanding = model.Outstanding(loan.Principal, paid)
	loan.Refresh(s.now())
	return tx.UpdateLoan(ctx, loan)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.Day(*t)
	return &d
}
