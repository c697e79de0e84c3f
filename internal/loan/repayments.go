package loan

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// RepaymentInput describes money received against a loan.
type RepaymentInput struct {
	PaidAt  time.Time
	Amount  decimal.Decimal
	OwnerID string
	Notes   string
	LoanID  int64
}

// AddRepayment records a repayment and settles the loan in the same unit. A repayment
// larger than the outstanding balance is rejected and nothing changes.
func (s *Service) AddRepayment(ctx context.Context, in RepaymentInput) (*model.Loan, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}
	if err := model.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	var loan *model.Loan
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, in.OwnerID, in.LoanID)
		if err != nil {
			return err
		}

		paid, err := tx.SumRepayments(ctx, loan.ID)
		if err != nil {
			return err
		}
		outstanding := model.Outstanding(loan.Principal, paid)

		if !outstanding.IsPositive() {
			return common.Validationf("loan %d is already fully paid", loan.ID)
		}
		if in.Amount.GreaterThan(outstanding) {
			return common.Validationf("repayment %s cannot exceed outstanding balance %s",
				in.Amount.StringFixed(2), outstanding.StringFixed(2))
		}

		repayment := &model.Repayment{
			LoanID:  loan.ID,
			OwnerID: in.OwnerID,
			Amount:  in.Amount,
			PaidAt:  model.Day(in.PaidAt),
			Notes:   in.Notes,
		}
		if err := tx.InsertRepayment(ctx, repayment); err != nil {
			return err
		}

		if err := s.settle(ctx, tx, loan, paid.Add(in.Amount)); err != nil {
			return err
		}
		loan.Repayments, err = tx.ListRepayments(ctx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Recorded loan repayment",
		"owner", in.OwnerID,
		"loan", in.LoanID,
		"amount", in.Amount.String(),
		"outstanding", loan.Outstanding.String(),
		"status", loan.Status)
	return loan, nil
}

// DeleteRepayment removes a repayment and re-settles the loan from what remains.
func (s *Service) DeleteRepayment(ctx context.Context, ownerID string, loanID, repaymentID int64) (*model.Loan, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var loan *model.Loan
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, ownerID, loanID)
		if err != nil {
			return err
		}

		if err := tx.DeleteRepayment(ctx, loanID, repaymentID); err != nil {
			return err
		}

		paid, err := tx.SumRepayments(ctx, loanID)
		if err != nil {
			return err
		}
		if err := s.settle(ctx, tx, loan, paid); err != nil {
			return err
		}
		loan.Repayments, err = tx.ListRepayments(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Deleted loan repayment",
		"owner", ownerID,
		"loan", loanID,
		"repayment", repaymentID,
		"outstanding", loan.Outstanding.String())
	return loan, nil
}
