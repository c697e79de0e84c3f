package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, owner_id, borrower_name, principal, outstanding, status, borrowed_at,
	due_date, notes, created_at, updated_at`

func scanLoan(row interface{ Scan(...any) error }) (*model.Loan, error) {
	var (
		l       model.Loan
		dueDate sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.OwnerID, &l.BorrowerName, &l.Principal, &l.Outstanding, &l.Status,
		&l.BorrowedAt, &dueDate, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.BorrowedAt = l.BorrowedAt.UTC()
	l.DueDate = timePtr(dueDate)
	return &l, nil
}

// CreateLoan inserts a loan with its cached outstanding balance and status.
func (q *queries) CreateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateNotNil(ctx, loan, "loan"); err != nil {
		return err
	}
	if err := loan.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO loans (owner_id, borrower_name, principal, outstanding, status, borrowed_at,
			due_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.OwnerID, loan.BorrowerName, loan.Principal, loan.Outstanding, loan.Status,
		utc(loan.BorrowedAt), utcPtr(loan.DueDate), loan.Notes, now, now)
	if err != nil {
		return dbError("create loan", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get loan id", err)
	}

	loan.ID = id
	loan.CreatedAt = now
	loan.UpdatedAt = now

	slog.Debug("created loan", "id", id, "borrower", loan.BorrowerName, "principal", loan.Principal.String())
	return nil
}

// GetLoan returns an owner's loan without its repayments.
func (q *queries) GetLoan(ctx context.Context, ownerID string, id int64) (*model.Loan, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	l, err := scanLoan(q.q.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("loan %d", id)
	}
	if err != nil {
		return nil, dbError("query loan", err)
	}
	return l, nil
}

// ListLoans returns an owner's loans, most recent first.
func (q *queries) ListLoans(ctx context.Context, ownerID string) ([]model.Loan, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT `+loanColumns+` FROM loans WHERE owner_id = ?
		ORDER BY borrowed_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, dbError("query loans", err)
	}
	defer func() { _ = rows.Close() }()

	var loans []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, dbError("scan loan", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate loans", err)
	}
	return loans, nil
}

// UpdateLoan rewrites a loan's fields, including its cached outstanding and status.
func (q *queries) UpdateLoan(ctx context.Context, loan *model.Loan) error {
	if err := validateNotNil(ctx, loan, "loan"); err != nil {
		return err
	}
	if err := loan.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		UPDATE loans
		SET borrower_name = ?, principal = ?, outstanding = ?, status = ?, borrowed_at = ?,
			due_date = ?, notes = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		loan.BorrowerName, loan.Principal, loan.Outstanding, loan.Status, utc(loan.BorrowedAt),
		utcPtr(loan.DueDate), loan.Notes, now, loan.ID, loan.OwnerID)
	if err != nil {
		return dbError("update loan", err)
	}
	if err := expectOne("update loan", res, common.NotFoundf("loan %d", loan.ID)); err != nil {
		return err
	}

	loan.UpdatedAt = now
	return nil
}

// DeleteLoan removes a loan; its repayments go with it.
func (q *queries) DeleteLoan(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM loans WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete loan", err)
	}
	return expectOne("delete loan", res, common.NotFoundf("loan %d", id))
}

// InsertRepayment adds a repayment row. It does not touch the loan.
func (q *queries) InsertRepayment(ctx context.Context, repayment *model.Repayment) error {
	if err := validateNotNil(ctx, repayment, "repayment"); err != nil {
		return err
	}
	if err := common.RequireOwner(repayment.OwnerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO repayments (loan_id, owner_id, amount, paid_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		repayment.LoanID, repayment.OwnerID, repayment.Amount, utc(repayment.PaidAt), repayment.Notes, now)
	if err != nil {
		return dbError("insert repayment", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get repayment id", err)
	}

	repayment.ID = id
	repayment.CreatedAt = now
	return nil
}

const repaymentColumns = `id, loan_id, owner_id, amount, paid_at, notes, created_at`

func scanRepayment(row interface{ Scan(...any) error }) (*model.Repayment, error) {
	var r model.Repayment
	if err := row.Scan(&r.ID, &r.LoanID, &r.OwnerID, &r.Amount, &r.PaidAt, &r.Notes, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.PaidAt = r.PaidAt.UTC()
	return &r, nil
}

// GetRepayment returns one repayment of a loan.
func (q *queries) GetRepayment(ctx context.Context, loanID, id int64) (*model.Repayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	r, err := scanRepayment(q.q.QueryRowContext(ctx,
		`SELECT `+repaymentColumns+` FROM repayments WHERE id = ? AND loan_id = ?`, id, loanID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("repayment %d on loan %d", id, loanID)
	}
	if err != nil {
		return nil, dbError("query repayment", err)
	}
	return r, nil
}

// ListRepayments returns a loan's repayments in payment order.
func (q *queries) ListRepayments(ctx context.Context, loanID int64) ([]model.Repayment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT `+repaymentColumns+` FROM repayments WHERE loan_id = ?
		ORDER BY paid_at, id`, loanID)
	if err != nil {
		return nil, dbError("query repayments", err)
	}
	defer func() { _ = rows.Close() }()

	var repayments []model.Repayment
	for rows.Next() {
		r, err := scanRepayment(rows)
		if err != nil {
			return nil, dbError("scan repayment", err)
		}
		repayments = append(repayments, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate repayments", err)
	}
	return repayments, nil
}

// DeleteRepayment removes one repayment of a loan.
func (q *queries) DeleteRepayment(ctx context.Context, loanID, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM repayments WHERE id = ? AND loan_id = ?`, id, loanID)
	if err != nil {
		return dbError("delete repayment", err)
	}
	return expectOne("delete repayment", res, common.NotFoundf("repayment %d on loan %d", id, loanID))
}

// SumRepayments totals a loan's repayments.
func (q *queries) SumRepayments(ctx context.Context, loanID int64) (decimal.Decimal, error) {
	repayments, err := q.ListRepayments(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, r := range repayments {
		sum = sum.Add(r.Amount)
	}
	return sum, nil
}
